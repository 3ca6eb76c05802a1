package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is one entry of the audit log.
type Activity struct {
	ID          uint64  `gorm:"primaryKey"`
	LogName     string  `gorm:"size:100;index;not null;default:'default'"`
	Description string  `gorm:"type:text;not null"`
	Event       string  `gorm:"size:50"`
	SubjectType string  `gorm:"size:100;index:idx_activity_subject"`
	SubjectID   *uint64 `gorm:"index:idx_activity_subject"`
	CauserID    *uint64 `gorm:"index"`
	Causer      *User   `gorm:"foreignKey:CauserID;constraint:OnDelete:SET NULL"`
	Properties  datatypes.JSON
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// TableName specifies the database table name for the Activity model.
func (Activity) TableName() string {
	return "activity_log"
}
