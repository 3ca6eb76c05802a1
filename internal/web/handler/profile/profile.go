// Package profile lets users edit their name and email and delete their account.
package profile

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
	// Path is the profile settings page.
	Path = handler.RootPath + "settings/profile"
	// Component is the profile settings page.
	Component = "settings/profile"

	// MsgUpdated is flashed after a profile update.
	MsgUpdated = "Profile updated successfully."
	// MsgEmailTaken is shown for addresses used by another account.
	MsgEmailTaken = "The email has already been taken."
	// MsgWrongPassword is shown when the confirmation password does not match.
	MsgWrongPassword = "The password is incorrect."
)

// UpdateForm is the submitted profile form.
type UpdateForm struct {
	Name  string `form:"name"  label:"name"  validate:"required,max=255"`
	Email string `form:"email" label:"email" validate:"required,email,max=255"`
}

// DeleteForm confirms account deletion.
type DeleteForm struct {
	Password string `form:"password" label:"password" validate:"required"`
}

// Service is the profile handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the profile handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireAuth())
		router.Get(handler.RootPath, s.Edit)
		router.Patch(handler.RootPath, s.Update)
		router.Delete(handler.RootPath, deps.Features.Require(feature.AccountDeletion), s.Destroy)
	})

	return nil
}

// Edit renders the profile form.
func (s *Service) Edit(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)

	return s.deps.Pages.Render(c, Component, fiber.Map{
		"mustVerifyEmail": false,
		"breadcrumbs":     navigation.Profile(),
		"profile": fiber.Map{
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// Update saves name and email.
func (s *Service) Update(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	form := new(UpdateForm)

	err := handler.Parse(c, s.deps.Validator, form)
	old := map[string]string{"name": form.Name, "email": form.Email}

	if err != nil {
		return handler.Fail(c, err, old, Path)
	}

	_, err = s.deps.Users.UpdateUser(handler.Context(c), user.ID, auth.UserUpdate{
		Name:  form.Name,
		Email: form.Email,
	})
	if errors.Is(err, auth.ErrEmailExists) {
		return handler.Invalid(c, validation.Errors{"email": MsgEmailTaken}, old, Path)
	}

	if err != nil {
		return handler.ServerError(c, err, Path, "failed to update profile")
	}

	return handler.Redirect(c, Path, session.FlashSuccess, MsgUpdated)
}

// Destroy soft deletes the account after checking the password, then logs out.
func (s *Service) Destroy(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	form := new(DeleteForm)

	if err := handler.Parse(c, s.deps.Validator, form); err != nil {
		return handler.Fail(c, err, nil, Path)
	}

	if !user.VerifyPassword(form.Password) {
		return handler.Invalid(c, validation.Errors{"password": MsgWrongPassword}, nil, Path)
	}

	if err := s.deps.Users.DeleteUser(handler.Context(c), user.ID); err != nil {
		return handler.ServerError(c, err, Path, "failed to delete account")
	}

	log.Info().Uint64("user_id", user.ID).Msg("account deleted by its owner")

	session.From(c).Logout()

	return handler.Redirect(c, handler.RootPath, "", "")
}
