// Package appearance renders the theme settings page.
package appearance

import (
	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/feature"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/navigation"
)

const (
	// Path is the appearance settings page.
	Path = handler.RootPath + "settings/appearance"
	// Component is the appearance settings page.
	Component = "settings/appearance"
)

// Service is the appearance handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the appearance handler.
var Handler = Service{}

// Init registers routes. The page does not exist while the feature is off.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	app.Get(Path, auth.RequireAuth(), deps.Features.Hide(feature.AppearanceSettings), s.Edit)

	return nil
}

// Edit renders the theme picker. The chosen theme itself lives in a client cookie.
func (s *Service) Edit(c *fiber.Ctx) error {
	return s.deps.Pages.Render(c, Component, fiber.Map{
		"breadcrumbs": navigation.Appearance(),
	})
}
