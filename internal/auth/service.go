package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panelkit/panelkit/internal/db/models"
)

// Service provides authorization functionality.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// permissionsOf returns the permission query scoped to the roles of userID.
func (s *Service) permissionsOf(userID uint64) *gorm.DB {
	return s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID)
}

// HasPermission checks if any role of the user grants permission.
func (s *Service) HasPermission(userID uint64, permission string) (bool, error) {
	var count int64

	err := s.permissionsOf(userID).
		Where("permissions.name = ?", permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// HasAnyPermission checks if a user has at least one of the given permissions.
func (s *Service) HasAnyPermission(userID uint64, permissions []string) (bool, error) {
	for _, perm := range permissions {
		has, err := s.HasPermission(userID, perm)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}

// GetUserPermissions retrieves the distinct permission names of a user.
func (s *Service) GetUserPermissions(userID uint64) ([]string, error) {
	var permissions []string

	err := s.permissionsOf(userID).
		Distinct("permissions.name").
		Order("permissions.name").
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return permissions, nil
}

// HasRole checks if the user holds the named role.
func (s *Service) HasRole(userID uint64, role string) (bool, error) {
	var count int64

	err := s.db.Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.name = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user role: %w", err)
	}

	return count > 0, nil
}

// AssignRole adds the named role to the user. Assigning a held role is a no-op.
func (s *Service) AssignRole(userID uint64, role string) error {
	return assignRole(s.db, userID, role)
}

// SyncRoles replaces the roles of the user with the named ones.
func (s *Service) SyncRoles(userID uint64, roles []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("failed to remove user roles: %w", err)
		}

		for _, role := range roles {
			if err := assignRole(tx, userID, role); err != nil {
				return err
			}
		}

		return nil
	})
}

func assignRole(db *gorm.DB, userID uint64, role string) error {
	var r models.Role
	if err := db.Where("name = ?", role).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrRoleNotFound, role)
		}

		return fmt.Errorf("failed to load role %s: %w", role, err)
	}

	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{UserID: userID, RoleID: r.ID}).Error
	if err != nil {
		return fmt.Errorf("failed to assign role %s: %w", role, err)
	}

	return nil
}

// SeedRoles creates the system roles and permissions and links them. It is idempotent.
func (s *Service) SeedRoles() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		perms := make(map[string]uint, len(Permissions()))

		for _, def := range Permissions() {
			p := models.Permission{
				Name:        def.Name,
				Resource:    def.Resource,
				Action:      def.Action,
				Description: def.Description,
			}
			if err := tx.Where("name = ?", def.Name).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("failed to seed permission %s: %w", def.Name, err)
			}

			perms[def.Name] = p.ID
		}

		for role, names := range RolePermissions() {
			r := models.Role{Name: role, Description: role + " role", IsSystem: true}
			if err := tx.Where("name = ?", role).FirstOrCreate(&r).Error; err != nil {
				return fmt.Errorf("failed to seed role %s: %w", role, err)
			}

			for _, name := range names {
				err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).
					Create(&models.RolePermission{RoleID: r.ID, PermissionID: perms[name]}).Error
				if err != nil {
					return fmt.Errorf("failed to link %s to %s: %w", name, role, err)
				}
			}
		}

		return nil
	})
}
