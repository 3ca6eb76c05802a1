package models

import (
	"fmt"

	"gorm.io/gorm"
)

// All lists every model the application migrates.
func All() []any {
	return []any{
		&Setting{},
		&Role{},
		&Permission{},
		&RolePermission{},
		&User{},
		&UserRole{},
		&Activity{},
		&Notification{},
		&Media{},
	}
}

// Migrate registers the custom join table and auto-migrates all models.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&User{}, "Roles", &UserRole{}); err != nil {
		return fmt.Errorf("failed to setup user roles join table: %w", err)
	}

	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
