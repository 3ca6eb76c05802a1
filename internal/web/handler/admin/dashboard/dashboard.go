// Package dashboard renders the admin dashboard with the recent activity feed.
package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/navigation"
)

const (
	// Path is the admin dashboard.
	Path = handler.RootPath + "admin/dashboard"
	// Component is the admin dashboard page.
	Component = "admin/dashboard"
)

// Service is the admin dashboard handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the admin dashboard handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	app.Get(Path,
		auth.RequireAuth(),
		auth.RequireRole(models.RoleAdmin),
		auth.RequirePermission(deps.Auth, auth.PermAdminDashboard),
		s.Index,
	)

	return nil
}

// Index renders one page of the activity log, newest first.
func (s *Service) Index(c *fiber.Ctx) error {
	activities, err := s.deps.Activity.Recent(c.UserContext(), handler.PageRequest(c))
	if err != nil {
		return err
	}

	return s.deps.Pages.Render(c, Component, fiber.Map{
		"breadcrumbs":      navigation.AdminDashboard(),
		"recentActivities": activities,
	})
}
