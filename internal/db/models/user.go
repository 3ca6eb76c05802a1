package models

import (
	"encoding/json"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// User represents a user account in the system.
// Roles are assigned through the user_roles join table.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Name is the display name.
	Name string `gorm:"size:255;not null" json:"name"`
	// Email is the unique, lowercased login address.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	// EmailVerifiedAt is set once the address was verified.
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255;not null" json:"-"`
	// TwoFactorSecret is the base32 TOTP secret, empty while two-factor is off.
	TwoFactorSecret string `gorm:"size:255" json:"-"`
	// TwoFactorRecoveryCodes is a JSON encoded list of unused recovery codes.
	TwoFactorRecoveryCodes string `gorm:"type:text" json:"-"`
	// TwoFactorConfirmedAt is set once the user proved possession of the secret.
	TwoFactorConfirmedAt *time.Time `json:"two_factor_confirmed_at"`
	// LastLoginAt is updated on every successful login.
	LastLoginAt *time.Time `json:"last_login_at"`
	// Roles assigned to the user.
	Roles []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
	// DeletedAt is the soft delete timestamp (managed by GORM).
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
func (u *User) VerifyPassword(password string) bool {
	if u.Password == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}

// HasRole reports whether the loaded Roles contain name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}

	return false
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// RoleNames lists the names of the loaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}

	return names
}

// HasTwoFactorEnabled reports whether a confirmed TOTP secret exists.
func (u *User) HasTwoFactorEnabled() bool {
	return u.TwoFactorSecret != "" && u.TwoFactorConfirmedAt != nil
}

// RecoveryCodes decodes the stored recovery codes.
func (u *User) RecoveryCodes() []string {
	if u.TwoFactorRecoveryCodes == "" {
		return nil
	}

	var codes []string
	if err := json.Unmarshal([]byte(u.TwoFactorRecoveryCodes), &codes); err != nil {
		log.Error().Err(err).Uint64("user_id", u.ID).Msg("invalid recovery codes")
		return nil
	}

	return codes
}

// SetRecoveryCodes encodes codes into TwoFactorRecoveryCodes.
func (u *User) SetRecoveryCodes(codes []string) {
	if len(codes) == 0 {
		u.TwoFactorRecoveryCodes = ""
		return
	}

	out, _ := json.Marshal(codes) //nolint:errchkjson
	u.TwoFactorRecoveryCodes = string(out)
}
