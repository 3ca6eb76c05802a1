package models

import "time"

// Permission represents a specific permission in the authorization system.
// Permissions are assigned to roles, roles are assigned to users.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Name is the unique permission identifier in resource.action format (e.g., "admin.users").
	Name string `gorm:"unique;size:100;not null"`
	// Resource is the resource this permission applies to.
	Resource string `gorm:"size:100;not null"`
	// Action is the action allowed on the resource.
	Action string `gorm:"size:50;not null"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
