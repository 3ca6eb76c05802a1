// Package dashboard provides the welcome page and the user dashboard.
package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/feature"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.RootPath + "dashboard"

	// Component is the dashboard page.
	Component = "dashboard"
	// WelcomeComponent is the landing page.
	WelcomeComponent = "welcome"
)

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	app.Get(handler.RootPath, s.Welcome)
	app.Get(Path,
		auth.RequireAuth(),
		auth.RequirePermission(deps.Auth, auth.PermDashboardView),
		s.Get,
	)

	return nil
}

// Welcome renders the landing page, or sends visitors to the login when it is disabled.
func (s *Service) Welcome(c *fiber.Ctx) error {
	if s.deps.Settings.Runtime().Current().DisableWelcomePage {
		return c.Redirect(auth.LoginPath)
	}

	return s.deps.Pages.Render(c, WelcomeComponent, fiber.Map{
		"canRegister": s.deps.Features.For(c).IsEnabled(feature.Registration),
	})
}

// Get handles the dashboard page rendering. Admins have their own dashboard.
func (s *Service) Get(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	if user.IsAdmin() {
		return c.Redirect(auth.HomePath(user))
	}

	return s.deps.Pages.Render(c, Component, fiber.Map{
		"breadcrumbs": navigation.Dashboard(),
	})
}
