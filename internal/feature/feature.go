// Package feature gates routes and UI on the resolved feature flags.
package feature

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/appconfig"
)

// Feature names.
const (
	Registration            = "registration"
	AccountDeletion         = "account-deletion"
	TwoFactorAuthentication = "two-factor-authentication"
	AppearanceSettings      = "appearance-settings"
)

// LocalKey is the fiber local holding the request Snapshot.
const LocalKey = "features"

// DisabledMessage is the body of the 403 answered for a disabled feature.
const DisabledMessage = "This feature is currently disabled."

// ErrFeatureDisabled is returned by Require when the feature is off.
var ErrFeatureDisabled = fiber.NewError(fiber.StatusForbidden, DisabledMessage)

// flags maps a feature name to its configuration key. Names missing here are always enabled.
var flags = map[string]string{ //nolint:gochecknoglobals
	Registration:            appconfig.KeyRegistrationEnabled,
	AccountDeletion:         appconfig.KeyAccountDeletionEnabled,
	TwoFactorAuthentication: appconfig.KeyTwoFactor,
	AppearanceSettings:      appconfig.KeyAppearanceSettings,
}

// Key returns the configuration key behind name and whether name is mapped.
func Key(name string) (string, bool) {
	key, ok := flags[name]

	return key, ok
}

// Snapshot is the flag state of one request.
type Snapshot struct {
	res *appconfig.Resolved
}

// NewSnapshot freezes the flags of res.
func NewSnapshot(res *appconfig.Resolved) Snapshot {
	return Snapshot{res: res}
}

// IsEnabled reports whether name is on. Unmapped names are on.
func (s Snapshot) IsEnabled(name string) bool {
	key, ok := flags[name]
	if !ok || s.res == nil {
		return true
	}

	return s.res.Bool(key)
}

// Resolved returns the configuration the snapshot was taken from. It is nil for the zero Snapshot.
func (s Snapshot) Resolved() *appconfig.Resolved {
	return s.res
}

// DefaultAppearance returns the configured default theme.
func (s Snapshot) DefaultAppearance() string {
	if s.res == nil {
		return "system"
	}

	return s.res.DefaultAppearance
}

// Shared is the features prop sent with every page.
func (s Snapshot) Shared() fiber.Map {
	return fiber.Map{
		"twoFactorAuthentication": s.IsEnabled(TwoFactorAuthentication),
		"appearanceSettings":      s.IsEnabled(AppearanceSettings),
		"defaultAppearance":       s.DefaultAppearance(),
		"registration":            s.IsEnabled(Registration),
		"accountDeletion":         s.IsEnabled(AccountDeletion),
	}
}

// Gate builds request snapshots from the live runtime.
type Gate struct {
	runtime *appconfig.Runtime
}

// NewGate creates a Gate.
func NewGate(runtime *appconfig.Runtime) *Gate {
	return &Gate{runtime: runtime}
}

// Share stores a Snapshot of the current runtime in the request locals.
func (g *Gate) Share() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalKey, NewSnapshot(g.runtime.Current()))

		return c.Next()
	}
}

// For returns the request Snapshot, taking one from the runtime when Share did not run.
func (g *Gate) For(c *fiber.Ctx) Snapshot {
	if snap, ok := c.Locals(LocalKey).(Snapshot); ok {
		return snap
	}

	snap := NewSnapshot(g.runtime.Current())
	c.Locals(LocalKey, snap)

	return snap
}

// Require answers 403 before the handler runs when name is disabled for this request.
func (g *Gate) Require(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g.For(c).IsEnabled(name) {
			return c.Next()
		}

		log.Warn().Str("feature", name).Str("path", c.Path()).Msg("feature disabled")

		return ErrFeatureDisabled
	}
}

// Hide answers 404 when name is disabled, for pages that should not exist at all while off.
func (g *Gate) Hide(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g.For(c).IsEnabled(name) {
			return c.Next()
		}

		return fiber.ErrNotFound
	}
}
