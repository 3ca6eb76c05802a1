// Package logout ends the session of the current user.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/session"
)

// Path is the logout path.
const Path = handler.RootPath + "logout"

// MsgLoggedOut is flashed after logout.
const MsgLoggedOut = "You have been logged out successfully."

// Service is the logout handler service.
type Service struct {
	handler.Service
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	app.Post(Path, s.Logout)

	return nil
}

// Logout clears the session and issues a new id.
func (s *Service) Logout(c *fiber.Ctx) error {
	if user := auth.CurrentUser(c); user != nil {
		log.Info().Uint64("user_id", user.ID).Msg("user logged out")
	}

	session.From(c).Logout()

	return handler.Redirect(c, handler.RootPath, session.FlashSuccess, MsgLoggedOut)
}
