package auth

import "errors"

var (
	// ErrInvalidOldPassword is returned when the provided current password does not match.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrEmailExists is returned when attempting to use an email that already belongs to an account.
	ErrEmailExists = errors.New("user with email already exists")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrRoleNotFound is returned when assigning a role that does not exist.
	ErrRoleNotFound = errors.New("role not found")

	// ErrInvalidTwoFactorCode is returned when neither a TOTP code nor a recovery code matched.
	ErrInvalidTwoFactorCode = errors.New("invalid two factor authentication code")

	// ErrTwoFactorNotEnabled is returned when confirming or challenging without a secret.
	ErrTwoFactorNotEnabled = errors.New("two factor authentication is not enabled")

	// ErrTooManyAttempts is returned when the login throttle is exhausted.
	ErrTooManyAttempts = errors.New("too many login attempts")
)
