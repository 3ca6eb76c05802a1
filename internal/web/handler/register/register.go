// Package register lets visitors create their own account while registration is enabled.
package register

import (
	"errors"

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
	// Path is the registration page.
	Path = handler.RootPath + "register"
	// Component is the registration page.
	Component = "auth/register"

	// MsgEmailTaken is shown for addresses that already have an account.
	MsgEmailTaken = "The email has already been taken."
	// MsgSuccess is flashed after registration.
	MsgSuccess = "Login successful!"
)

// Form is the submitted registration form.
type Form struct {
	Name                 string `form:"name"                  label:"name"     validate:"required,max=255"`
	Email                string `form:"email"                 label:"email"    validate:"required,email,max=255"`
	Password             string `form:"password"              label:"password" validate:"required,min=8"`
	PasswordConfirmation string `form:"password_confirmation" label:"password confirmation" validate:"eqfield=Password"`
}

// Service is the registration handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the registration handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	gate := deps.Features.Require(feature.Registration)

	app.Get(Path, gate, auth.RequireGuest(), s.Get)
	app.Post(Path, gate, auth.RequireGuest(), s.Post)

	return nil
}

// Get renders the registration form.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.deps.Pages.Render(c, Component, nil)
}

// Post creates the account, logs it in and notifies the administrator.
func (s *Service) Post(c *fiber.Ctx) error {
	ctx := c.UserContext()
	form := new(Form)

	err := handler.Parse(c, s.deps.Validator, form)
	old := map[string]string{"name": form.Name, "email": form.Email}

	if err != nil {
		return handler.Fail(c, err, old, Path)
	}

	user, err := s.deps.Users.CreateUser(ctx, auth.NewUser{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Roles:    []string{models.RoleUser},
	})
	if errors.Is(err, auth.ErrEmailExists) {
		return handler.Invalid(c, validation.Errors{"email": MsgEmailTaken}, old, Path)
	}

	if err != nil {
		return err
	}

	log.Info().Uint64("user_id", user.ID).Msg("user registered")

	if err = s.deps.Notifications.UserCreated(ctx, user); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to notify about new user")
	}

	session.From(c).Login(user.ID)

	return handler.Redirect(c, auth.HomePath(user), session.FlashSuccess, MsgSuccess)
}
