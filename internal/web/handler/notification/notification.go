// Package notification lets users mark their notifications read and dismiss them.
package notification

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/notification"
	"github.com/panelkit/panelkit/internal/web/handler"
)

const (
	// Path is the notifications route group.
	Path = handler.RootPath + "notifications"
	// ReadPath marks one notification read.
	ReadPath = handler.RootPath + ":id/read"
	// ReadAllPath marks all notifications read.
	ReadAllPath = handler.RootPath + "read-all"
	// ItemPath deletes one notification.
	ItemPath = handler.RootPath + ":id"
)

// Service is the notification handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the notification handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireAuth())
		router.Post(ReadAllPath, s.ReadAll)
		router.Post(ReadPath, s.Read)
		router.Delete(ItemPath, s.Destroy)
	})

	return nil
}

// back redirects to the previous page. Unknown ids are not an error.
func back(c *fiber.Ctx, err error) error {
	fallback := auth.HomePath(auth.CurrentUser(c))

	if errors.Is(err, notification.ErrNotFound) {
		log.Debug().Str("id", c.Params("id")).Msg("notification not found")
	} else if err != nil {
		return handler.ServerError(c, err, fallback, "failed to update notification")
	}

	return handler.Back(c, fallback, "", "")
}

// Read marks one notification read.
func (s *Service) Read(c *fiber.Ctx) error {
	return back(c, s.deps.Notifications.MarkRead(c.UserContext(), auth.CurrentUser(c).ID, c.Params("id")))
}

// ReadAll marks every notification read.
func (s *Service) ReadAll(c *fiber.Ctx) error {
	n, err := s.deps.Notifications.MarkAllRead(c.UserContext(), auth.CurrentUser(c).ID)
	if err == nil {
		log.Debug().Int64("count", n).Msg("notifications marked read")
	}

	return back(c, err)
}

// Destroy deletes one notification.
func (s *Service) Destroy(c *fiber.Ctx) error {
	return back(c, s.deps.Notifications.Delete(c.UserContext(), auth.CurrentUser(c).ID, c.Params("id")))
}
