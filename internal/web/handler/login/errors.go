package login

import "errors"

var (
	// ErrInvalidCredentials is returned when the provided email and/or password
	// are not valid.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoPendingChallenge is returned when the two factor challenge is posted without
	// a preceding password login.
	ErrNoPendingChallenge = errors.New("no pending two factor challenge")
)

// Messages shown to the user.
const (
	MsgFailed            = "These credentials do not match our records."
	MsgThrottled         = "Too many login attempts. Please try again in %d seconds."
	MsgSuccess           = "Login successful!"
	MsgInvalidCode       = "The provided two factor authentication code was invalid."
	MsgInvalidRecovery   = "The provided two factor recovery code was invalid."
	MsgChallengeRequired = "Please enter your authentication code or a recovery code."
)
