package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is a database notification addressed to one user.
type Notification struct {
	ID        string `gorm:"primaryKey;size:36"`
	Type      string `gorm:"size:255;not null"`
	UserID    uint64 `gorm:"index;not null"`
	Data      datatypes.JSON
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Notification model.
func (Notification) TableName() string {
	return "notifications"
}
