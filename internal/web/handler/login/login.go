// Package login provides the password login and the two factor challenge.
package login

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/feature"
	"github.com/panelkit/panelkit/internal/validation"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = auth.LoginPath
	// ChallengePath is the two factor challenge page.
	ChallengePath = handler.RootPath + "two-factor-challenge"

	// Component is the login page.
	Component = "auth/login"
	// ChallengeComponent is the two factor challenge page.
	ChallengeComponent = "auth/two-factor-challenge"
)

// Form is the submitted login form.
type Form struct {
	Email    string `form:"email"    label:"email"    validate:"required,email"`
	Password string `form:"password" label:"password" validate:"required"`
	Remember bool   `form:"remember"`
}

// ChallengeForm is the submitted two factor challenge.
type ChallengeForm struct {
	Code         string `form:"code"`
	RecoveryCode string `form:"recovery_code"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, auth.RequireGuest(), s.Get)
		router.Post(handler.RootPath, auth.RequireGuest(), s.Post)
	})

	app.Route(ChallengePath, func(router fiber.Router) {
		router.Get(handler.RootPath, auth.RequireGuest(), s.GetChallenge)
		router.Post(handler.RootPath, auth.RequireGuest(), s.PostChallenge)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.deps.Pages.Render(c, Component, fiber.Map{
		"canRegister":      s.deps.Features.For(c).IsEnabled(feature.Registration),
		"canResetPassword": false,
		"status":           session.From(c).Flashes()[session.FlashStatus],
	})
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	ctx := c.UserContext()
	form := new(Form)

	err := handler.Parse(c, s.deps.Validator, form)
	old := map[string]string{"email": form.Email}

	if err != nil {
		return handler.Fail(c, err, old, Path)
	}

	key := auth.ThrottleKey(form.Email, c.IP())

	locked, wait, err := s.deps.Throttle.TooManyAttempts(ctx, key)
	if err != nil {
		return err
	}

	if locked {
		log.Warn().Str("email", auth.NormalizeEmail(form.Email)).Str("ip", c.IP()).Msg("login throttled")

		return throttled(wait)
	}

	user, err := s.deps.Users.Authenticate(ctx, form.Email, form.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) && !errors.Is(err, auth.ErrInvalidPassword) {
			return err
		}

		if hitErr := s.deps.Throttle.Hit(ctx, key); hitErr != nil {
			log.Error().Err(hitErr).Msg("failed to count login attempt")
		}

		log.Info().Str("email", auth.NormalizeEmail(form.Email)).Msg("failed login attempt")

		return handler.Invalid(c, validation.Errors{"email": MsgFailed}, old, Path)
	}

	if err = s.deps.Throttle.Clear(ctx, key); err != nil {
		log.Error().Err(err).Msg("failed to clear login attempts")
	}

	if user.HasTwoFactorEnabled() && s.deps.Features.For(c).IsEnabled(feature.TwoFactorAuthentication) {
		session.From(c).SetTwoFactorUser(user.ID)

		return c.Redirect(ChallengePath)
	}

	return s.complete(c, user)
}

// complete logs user in and sends it to the intended page.
func (s *Service) complete(c *fiber.Ctx, user *models.User) error {
	sess := session.From(c)
	sess.Login(user.ID)

	if err := s.deps.Users.TouchLogin(c.UserContext(), user.ID); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to stamp login")
	}

	log.Info().Uint64("user_id", user.ID).Msg("user logged in")

	return handler.Redirect(c, sess.PullIntended(auth.HomePath(user)), session.FlashSuccess, MsgSuccess)
}

// GetChallenge renders the two factor challenge.
func (s *Service) GetChallenge(c *fiber.Ctx) error {
	if session.From(c).TwoFactorUser() == 0 {
		return c.Redirect(Path)
	}

	return s.deps.Pages.Render(c, ChallengeComponent, nil)
}

// PostChallenge verifies a TOTP code or a recovery code and completes the login.
func (s *Service) PostChallenge(c *fiber.Ctx) error {
	ctx := c.UserContext()
	sess := session.From(c)

	userID := sess.TwoFactorUser()
	if userID == 0 {
		log.Warn().Err(ErrNoPendingChallenge).Msg("two factor challenge without login")

		return c.Redirect(Path)
	}

	form := new(ChallengeForm)
	if err := c.BodyParser(form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form data")
	}

	if form.Code == "" && form.RecoveryCode == "" {
		return handler.Invalid(c, validation.Errors{"code": MsgChallengeRequired}, nil, ChallengePath)
	}

	key := auth.ChallengeThrottleKey(userID)

	locked, wait, err := s.deps.Throttle.TooManyAttempts(ctx, key)
	if err != nil {
		return err
	}

	if locked {
		log.Warn().Uint64("user_id", userID).Str("ip", c.IP()).Msg("two factor challenge throttled")

		return throttled(wait)
	}

	user, err := s.deps.Users.GetUserByID(ctx, userID)
	if errors.Is(err, auth.ErrUserNotFound) {
		sess.Logout()

		return c.Redirect(Path)
	}

	if err != nil {
		return err
	}

	if err = s.deps.TwoFactor.Verify(ctx, user, form.Code, form.RecoveryCode); err != nil {
		if !errors.Is(err, auth.ErrInvalidTwoFactorCode) && !errors.Is(err, auth.ErrTwoFactorNotEnabled) {
			return err
		}

		log.Info().Uint64("user_id", user.ID).Msg("invalid two factor response")

		if hitErr := s.deps.Throttle.Hit(ctx, key); hitErr != nil {
			log.Error().Err(hitErr).Msg("failed to count two factor attempt")
		}

		if form.Code != "" {
			return handler.Invalid(c, validation.Errors{"code": MsgInvalidCode}, nil, ChallengePath)
		}

		return handler.Invalid(c, validation.Errors{"recovery_code": MsgInvalidRecovery}, nil, ChallengePath)
	}

	if err = s.deps.Throttle.Clear(ctx, key); err != nil {
		log.Error().Err(err).Msg("failed to clear two factor attempts")
	}

	return s.complete(c, user)
}

// throttled answers a locked out attempt.
func throttled(wait time.Duration) error {
	seconds := int(math.Ceil(wait.Seconds()))

	return fiber.NewError(fiber.StatusTooManyRequests, fmt.Sprintf(MsgThrottled, max(seconds, 1)))
}
