// Package middleware assembles the request pipeline shared by all pages.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/inertia"
	"github.com/panelkit/panelkit/internal/web/session"
	"github.com/panelkit/panelkit/internal/web/shared"
)

// ErrorComponent renders error pages.
const ErrorComponent = "error"

// Stack returns the middleware every page runs behind, in order: session, page bridge,
// feature snapshot, then the authenticated user.
func Stack(deps *handler.Deps, sessions *session.Manager) []fiber.Handler {
	deps.Pages.Share(shared.Props(deps))

	return []fiber.Handler{
		sessions.Middleware(),
		deps.Pages.Middleware(),
		deps.Features.Share(),
		auth.LoadUser(deps.Users),
	}
}

// Use registers Stack on app.
func Use(app *fiber.App, deps *handler.Deps, sessions *session.Manager) {
	for _, h := range Stack(deps, sessions) {
		app.Use(h)
	}
}

// ErrorHandler renders failed requests as error pages. JSON clients get {"message": ...}.
func ErrorHandler(pages *inertia.Renderer) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := handler.ServerErrorMessage

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		}

		c.Status(code)

		if wantsJSON(c) {
			return c.JSON(fiber.Map{"message": message})
		}

		if pages != nil {
			renderErr := pages.Render(c, ErrorComponent, fiber.Map{
				"status":  code,
				"message": message,
			})
			if renderErr == nil {
				c.Status(code)

				return nil
			}

			log.Error().Err(renderErr).Msg("failed to render error page")
		}

		return c.Status(code).SendString(message)
	}
}

func wantsJSON(c *fiber.Ctx) bool {
	if inertia.IsInertia(c) {
		return false
	}

	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
