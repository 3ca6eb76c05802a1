// Package password lets users change their password and confirm it before sensitive pages.
package password

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/validation"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/navigation"
	"github.com/panelkit/panelkit/internal/web/session"
)

const (
	// Path is the password settings page.
	Path = handler.RootPath + "settings/password"
	// Component is the password settings page.
	Component = "settings/password"
	// ConfirmComponent asks for the current password.
	ConfirmComponent = "auth/confirm-password"

	// MsgUpdated is flashed after a password change.
	MsgUpdated = "Password updated successfully."
	// MsgWrongPassword is shown when the current password does not match.
	MsgWrongPassword = "The password is incorrect."
)

// UpdateForm changes the password.
type UpdateForm struct {
	CurrentPassword      string `form:"current_password"      label:"current password" validate:"required"`
	Password             string `form:"password"              label:"password"         validate:"required,min=8,max=255"`
	PasswordConfirmation string `form:"password_confirmation" label:"password"         validate:"eqfield=Password"`
}

// ConfirmForm confirms the current password.
type ConfirmForm struct {
	Password string `form:"password" label:"password" validate:"required"`
}

// Service is the password handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
	now  func() time.Time
}

// Handler is the password handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps
	if s.now == nil {
		s.now = time.Now
	}

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireAuth())
		router.Get(handler.RootPath, s.Edit)
		router.Put(handler.RootPath, s.Update)
	})

	app.Route(auth.ConfirmPasswordPath, func(router fiber.Router) {
		router.Use(auth.RequireAuth())
		router.Get(handler.RootPath, s.ShowConfirm)
		router.Post(handler.RootPath, s.Confirm)
	})

	return nil
}

// Edit renders the password form.
func (s *Service) Edit(c *fiber.Ctx) error {
	return s.deps.Pages.Render(c, Component, fiber.Map{
		"breadcrumbs": navigation.Password(),
	})
}

// Update changes the password after checking the current one.
func (s *Service) Update(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	form := new(UpdateForm)

	if err := handler.Parse(c, s.deps.Validator, form); err != nil {
		return handler.Fail(c, err, nil, Path)
	}

	err := s.deps.Users.ChangePassword(handler.Context(c), user.ID, form.CurrentPassword, form.Password)
	if errors.Is(err, auth.ErrInvalidOldPassword) {
		return handler.Invalid(c, validation.Errors{"current_password": MsgWrongPassword}, nil, Path)
	}

	if err != nil {
		return handler.ServerError(c, err, Path, "failed to change password")
	}

	return handler.Back(c, Path, session.FlashSuccess, MsgUpdated)
}

// ShowConfirm renders the password confirmation form.
func (s *Service) ShowConfirm(c *fiber.Ctx) error {
	return s.deps.Pages.Render(c, ConfirmComponent, fiber.Map{})
}

// Confirm stamps the confirmation time and continues to the page that asked for it.
func (s *Service) Confirm(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	form := new(ConfirmForm)

	if err := handler.Parse(c, s.deps.Validator, form); err != nil {
		return handler.Fail(c, err, nil, auth.ConfirmPasswordPath)
	}

	if !user.VerifyPassword(form.Password) {
		return handler.Invalid(c, validation.Errors{"password": MsgWrongPassword}, nil, auth.ConfirmPasswordPath)
	}

	sess := session.From(c)
	sess.ConfirmPassword(s.now())

	return handler.Redirect(c, sess.PullIntended(auth.HomePath(user)), "", "")
}
