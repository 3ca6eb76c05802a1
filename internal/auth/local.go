package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/activity"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/pagination"
)

// LocalProvider handles local database authentication and account management.
type LocalProvider struct {
	db       *gorm.DB
	activity *activity.Logger
	now      func() time.Time
}

// NewLocalProvider creates a new local authentication provider. Account changes are recorded
// in the activity log when a logger is given.
func NewLocalProvider(db *gorm.DB, activityLogger *activity.Logger) *LocalProvider {
	return &LocalProvider{
		db:       db,
		activity: activityLogger,
		now:      time.Now,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate verifies email and password and returns the user with its roles.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).Preload("Roles").
		Where("email = ?", NormalizeEmail(email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	return &user, nil
}

// TouchLogin stamps the last login time.
func (p *LocalProvider) TouchLogin(ctx context.Context, userID uint64) error {
	return p.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", p.now()).Error
}

// NewUser holds the fields of an account to create.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Roles    []string
}

// EmailTaken reports whether email belongs to an account other than exceptID.
// Soft deleted accounts still hold their address.
func (p *LocalProvider) EmailTaken(ctx context.Context, email string, exceptID uint64) (bool, error) {
	var count int64

	err := p.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("email = ? AND id <> ?", NormalizeEmail(email), exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return count > 0, nil
}

// CreateUser creates a new local user with the given roles.
func (p *LocalProvider) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	taken, err := p.EmailTaken(ctx, in.Email, 0)
	if err != nil {
		return nil, err
	}

	if taken {
		return nil, ErrEmailExists
	}

	user := models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    NormalizeEmail(in.Email),
		Password: models.HashPassword(in.Password),
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Roles").Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		for _, role := range in.Roles {
			if err := assignRole(tx, user.ID, role); err != nil {
				return err
			}
		}

		if p.activity != nil {
			return p.activity.UserCreated(tx, &user)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return p.GetUserByID(ctx, user.ID)
}

// UserUpdate holds the editable account fields. An empty Password keeps the current one.
type UserUpdate struct {
	Name     string
	Email    string
	Password string
}

// UpdateUser changes name, email and optionally the password of a user.
// Changing the email clears its verification.
func (p *LocalProvider) UpdateUser(ctx context.Context, userID uint64, in UserUpdate) (*models.User, error) {
	before, err := p.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	taken, err := p.EmailTaken(ctx, in.Email, userID)
	if err != nil {
		return nil, err
	}

	if taken {
		return nil, ErrEmailExists
	}

	after := *before
	after.Name = strings.TrimSpace(in.Name)
	after.Email = NormalizeEmail(in.Email)

	updates := map[string]any{
		"name":  after.Name,
		"email": after.Email,
	}

	if after.Email != before.Email {
		updates["email_verified_at"] = nil
	}

	if in.Password != "" {
		updates["password"] = models.HashPassword(in.Password)
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		if p.activity != nil {
			return p.activity.UserUpdated(tx, before, &after)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return p.GetUserByID(ctx, userID)
}

// ChangePassword changes a user's password after checking the current one.
func (p *LocalProvider) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := p.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	return p.ResetPassword(ctx, userID, newPassword)
}

// ResetPassword sets a new password without checking the current one.
func (p *LocalProvider) ResetPassword(ctx context.Context, userID uint64, newPassword string) error {
	return p.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", models.HashPassword(newPassword)).Error
}

// DeleteUser soft deletes a user.
func (p *LocalProvider) DeleteUser(ctx context.Context, userID uint64) error {
	user, err := p.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.User{}, userID).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		if p.activity != nil {
			return p.activity.UserDeleted(tx, user)
		}

		return nil
	})
}

// GetUserByID retrieves a user with its roles.
func (p *LocalProvider) GetUserByID(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).Preload("Roles").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &user, nil
}

// SaveTwoFactor persists the two factor columns of user.
func (p *LocalProvider) SaveTwoFactor(ctx context.Context, user *models.User) error {
	return p.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"two_factor_secret":         user.TwoFactorSecret,
			"two_factor_recovery_codes": user.TwoFactorRecoveryCodes,
			"two_factor_confirmed_at":   user.TwoFactorConfirmedAt,
		}).Error
}

// Count returns the number of accounts, soft deleted ones included.
func (p *LocalProvider) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := p.db.WithContext(ctx).Unscoped().Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

// ListUsers returns one page of users, newest first, optionally filtered by name or email.
func (p *LocalProvider) ListUsers(
	ctx context.Context,
	search string,
	req pagination.Request,
) (pagination.Page[models.User], error) {
	tx := p.db.WithContext(ctx).Model(&models.User{}).Order("created_at DESC").Order("id DESC")

	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	page, err := pagination.Find[models.User](tx, req, withRoles)
	if err != nil {
		return page, fmt.Errorf("failed to list users: %w", err)
	}

	return page, nil
}

func withRoles(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Roles")
}
