// Package twofactor lets users manage TOTP two-factor authentication on their account.
package twofactor

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/feature"
	"github.com/panelkit/panelkit/internal/validation"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/navigation"
	"github.com/panelkit/panelkit/internal/web/session"
)

const (
	// Path is the two-factor settings page.
	Path = handler.RootPath + "settings/two-factor"
	// Component is the two-factor settings page.
	Component = "settings/two-factor"

	// ManagePath enables (POST) or disables (DELETE) two-factor authentication.
	ManagePath = handler.RootPath + "user/two-factor-authentication"
	// ConfirmPath activates a pending secret.
	ConfirmPath = handler.RootPath + "user/confirmed-two-factor-authentication"
	// SetupPath returns the secret and its otpauth URL as JSON.
	SetupPath = handler.RootPath + "user/two-factor-secret-key"
	// RecoveryCodesPath returns (GET) or regenerates (POST) recovery codes.
	RecoveryCodesPath = handler.RootPath + "user/two-factor-recovery-codes"

	// MsgEnabled is flashed once a secret is pending confirmation.
	MsgEnabled = "Two-factor authentication enabled. Confirm it with a code from your authenticator app."
	// MsgConfirmed is flashed after a successful confirmation.
	MsgConfirmed = "Two-factor authentication confirmed."
	// MsgDisabled is flashed after disabling.
	MsgDisabled = "Two-factor authentication disabled."
	// MsgRegenerated is flashed after new recovery codes were issued.
	MsgRegenerated = "Recovery codes regenerated."
	// MsgInvalidCode is shown for a wrong confirmation code.
	MsgInvalidCode = "The provided two factor authentication code was invalid."
	// MsgNotEnabled is answered when no secret exists yet.
	MsgNotEnabled = "Two-factor authentication is not enabled."
)

// ConfirmForm carries the confirmation code.
type ConfirmForm struct {
	Code string `form:"code" label:"code" validate:"required,numeric,len=6"`
}

// Service is the two-factor handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the two-factor handler.
var Handler = Service{}

// Init registers routes. Every route answers 404 while the feature is off and requires a
// recent password confirmation.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	guards := []fiber.Handler{
		auth.RequireAuth(),
		deps.Features.Hide(feature.TwoFactorAuthentication),
		auth.RequirePasswordConfirmed(deps.Cfg.Auth.PasswordTimeout),
	}

	route := func(method, path string, h fiber.Handler) {
		app.Add(method, path, append(guards[:len(guards):len(guards)], h)...)
	}

	route(fiber.MethodGet, Path, s.Show)
	route(fiber.MethodPost, ManagePath, s.Enable)
	route(fiber.MethodDelete, ManagePath, s.Disable)
	route(fiber.MethodPost, ConfirmPath, s.Confirm)
	route(fiber.MethodGet, SetupPath, s.Setup)
	route(fiber.MethodGet, RecoveryCodesPath, s.RecoveryCodes)
	route(fiber.MethodPost, RecoveryCodesPath, s.Regenerate)

	return nil
}

// Show renders the two-factor state of the user.
func (s *Service) Show(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)

	return s.deps.Pages.Render(c, Component, fiber.Map{
		"breadcrumbs":          navigation.TwoFactor(),
		"twoFactorEnabled":     user.HasTwoFactorEnabled(),
		"pendingConfirmation":  user.TwoFactorSecret != "" && user.TwoFactorConfirmedAt == nil,
		"requiresConfirmation": true,
	})
}

// Enable creates a new pending secret.
func (s *Service) Enable(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)

	if _, err := s.deps.TwoFactor.Enable(handler.Context(c), user); err != nil {
		return handler.ServerError(c, err, Path, "failed to enable two-factor authentication")
	}

	log.Info().Uint64("user_id", user.ID).Msg("two-factor secret generated")

	return handler.Back(c, Path, session.FlashStatus, MsgEnabled)
}

// Confirm activates the pending secret.
func (s *Service) Confirm(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	form := new(ConfirmForm)

	if err := handler.Parse(c, s.deps.Validator, form); err != nil {
		return handler.Fail(c, err, nil, Path)
	}

	err := s.deps.TwoFactor.Confirm(handler.Context(c), user, form.Code)
	switch {
	case errors.Is(err, auth.ErrInvalidTwoFactorCode):
		return handler.Invalid(c, validation.Errors{"code": MsgInvalidCode}, nil, Path)
	case errors.Is(err, auth.ErrTwoFactorNotEnabled):
		return handler.Invalid(c, validation.Errors{"code": MsgNotEnabled}, nil, Path)
	case err != nil:
		return handler.ServerError(c, err, Path, "failed to confirm two-factor authentication")
	}

	log.Info().Uint64("user_id", user.ID).Msg("two-factor authentication confirmed")

	return handler.Back(c, Path, session.FlashSuccess, MsgConfirmed)
}

// Disable removes the secret.
func (s *Service) Disable(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)

	if err := s.deps.TwoFactor.Disable(handler.Context(c), user); err != nil {
		return handler.ServerError(c, err, Path, "failed to disable two-factor authentication")
	}

	log.Info().Uint64("user_id", user.ID).Msg("two-factor authentication disabled")

	return handler.Back(c, Path, session.FlashSuccess, MsgDisabled)
}

// Setup returns the secret and otpauth URL for the authenticator app.
func (s *Service) Setup(c *fiber.Ctx) error {
	setup, err := s.deps.TwoFactor.Setup(auth.CurrentUser(c))
	if errors.Is(err, auth.ErrTwoFactorNotEnabled) {
		return fiber.NewError(fiber.StatusNotFound, MsgNotEnabled)
	}

	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"secretKey": setup.Secret, "url": setup.URL})
}

// RecoveryCodes returns the unused recovery codes.
func (s *Service) RecoveryCodes(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	if user.TwoFactorSecret == "" {
		return fiber.NewError(fiber.StatusNotFound, MsgNotEnabled)
	}

	return c.JSON(user.RecoveryCodes())
}

// Regenerate replaces the recovery codes.
func (s *Service) Regenerate(c *fiber.Ctx) error {
	_, err := s.deps.TwoFactor.RegenerateRecoveryCodes(handler.Context(c), auth.CurrentUser(c))
	if errors.Is(err, auth.ErrTwoFactorNotEnabled) {
		return handler.Back(c, Path, session.FlashError, MsgNotEnabled)
	}

	if err != nil {
		return handler.ServerError(c, err, Path, "failed to regenerate recovery codes")
	}

	return handler.Back(c, Path, session.FlashSuccess, MsgRegenerated)
}
