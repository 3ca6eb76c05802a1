package auth

import (
	"context"
	"crypto/subtle"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/random"
)

// RecoveryCodeCount is the number of recovery codes issued at once.
const RecoveryCodeCount = 8

// TwoFactorSetup is what a user needs to register the secret with an authenticator app.
type TwoFactorSetup struct {
	Secret        string   `json:"secret"`
	URL           string   `json:"url"`
	RecoveryCodes []string `json:"recoveryCodes"`
}

// TwoFactor manages TOTP secrets and recovery codes of local users.
type TwoFactor struct {
	users  *LocalProvider
	issuer string
	now    func() time.Time
}

// NewTwoFactor creates a TwoFactor using issuer as the authenticator label.
func NewTwoFactor(users *LocalProvider, issuer string) *TwoFactor {
	return &TwoFactor{users: users, issuer: issuer, now: time.Now}
}

// Enable creates a fresh unconfirmed secret with new recovery codes.
func (t *TwoFactor) Enable(ctx context.Context, user *models.User) (*TwoFactorSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: user.Email,
		Algorithm:   otp.AlgorithmSHA1,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return nil, err
	}

	codes := random.RecoveryCodes(RecoveryCodeCount)

	user.TwoFactorSecret = key.Secret()
	user.TwoFactorConfirmedAt = nil
	user.SetRecoveryCodes(codes)

	if err := t.users.SaveTwoFactor(ctx, user); err != nil {
		return nil, err
	}

	return &TwoFactorSetup{Secret: key.Secret(), URL: key.URL(), RecoveryCodes: codes}, nil
}

// Setup returns the registration data of an existing secret.
func (t *TwoFactor) Setup(user *models.User) (*TwoFactorSetup, error) {
	if user.TwoFactorSecret == "" {
		return nil, ErrTwoFactorNotEnabled
	}

	return &TwoFactorSetup{Secret: user.TwoFactorSecret, URL: t.keyURL(user), RecoveryCodes: user.RecoveryCodes()}, nil
}

// keyURL rebuilds the otpauth URL that totp.Generate returned for the secret.
func (t *TwoFactor) keyURL(user *models.User) string {
	v := url.Values{}
	v.Set("secret", user.TwoFactorSecret)
	v.Set("issuer", t.issuer)
	v.Set("period", "30")
	v.Set("algorithm", "SHA1")
	v.Set("digits", "6")

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + t.issuer + ":" + user.Email,
		RawQuery: v.Encode(),
	}

	return u.String()
}

// Confirm activates the pending secret when code matches it.
func (t *TwoFactor) Confirm(ctx context.Context, user *models.User, code string) error {
	if user.TwoFactorSecret == "" {
		return ErrTwoFactorNotEnabled
	}

	if !t.validCode(user.TwoFactorSecret, code) {
		return ErrInvalidTwoFactorCode
	}

	now := t.now()
	user.TwoFactorConfirmedAt = &now

	return t.users.SaveTwoFactor(ctx, user)
}

// Verify checks a challenge response. A matching recovery code is consumed.
func (t *TwoFactor) Verify(ctx context.Context, user *models.User, code, recoveryCode string) error {
	if !user.HasTwoFactorEnabled() {
		return ErrTwoFactorNotEnabled
	}

	if code != "" {
		if t.validCode(user.TwoFactorSecret, code) {
			return nil
		}

		return ErrInvalidTwoFactorCode
	}

	codes := user.RecoveryCodes()
	for i, candidate := range codes {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(recoveryCode)) != 1 {
			continue
		}

		user.SetRecoveryCodes(append(codes[:i:i], codes[i+1:]...))

		return t.users.SaveTwoFactor(ctx, user)
	}

	return ErrInvalidTwoFactorCode
}

// RegenerateRecoveryCodes replaces all recovery codes.
func (t *TwoFactor) RegenerateRecoveryCodes(ctx context.Context, user *models.User) ([]string, error) {
	if user.TwoFactorSecret == "" {
		return nil, ErrTwoFactorNotEnabled
	}

	codes := random.RecoveryCodes(RecoveryCodeCount)
	user.SetRecoveryCodes(codes)

	if err := t.users.SaveTwoFactor(ctx, user); err != nil {
		return nil, err
	}

	return codes, nil
}

// Disable removes the secret and recovery codes.
func (t *TwoFactor) Disable(ctx context.Context, user *models.User) error {
	user.TwoFactorSecret = ""
	user.TwoFactorConfirmedAt = nil
	user.SetRecoveryCodes(nil)

	return t.users.SaveTwoFactor(ctx, user)
}

func (t *TwoFactor) validCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, t.now(), totp.ValidateOpts{
		Period:    30, //nolint:mnd
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})

	return err == nil && ok
}
