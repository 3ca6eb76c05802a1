// Package models contains database model definitions.
package models

import "time"

// Setting is one persisted application setting. Key is unique, Value is the raw string form.
type Setting struct {
	ID        uint64 `gorm:"primaryKey"`
	Key       string `gorm:"column:key;uniqueIndex;size:255;not null"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Setting model.
func (Setting) TableName() string {
	return "settings"
}
