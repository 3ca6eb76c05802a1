package settings

import (
	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/db/controller/setting"
	"github.com/panelkit/panelkit/internal/secret"
	"github.com/panelkit/panelkit/internal/web/navigation"
)

// Layer is one row of the environment viewer.
type Layer struct {
	Name   string           `json:"name"`
	Value  *string          `json:"value"`
	Source appconfig.Source `json:"source,omitempty"`
}

func display(name, value string) *string {
	if value == "" {
		return nil
	}

	v := secret.Display(name, value)

	return &v
}

// Environment shows the environment, runtime and database layers side by side. Secrets are
// masked in every layer.
func (s *Service) Environment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	envVars := make([]Layer, 0)
	for _, v := range s.deps.Env.Vars() {
		envVars = append(envVars, Layer{Name: v.Name, Value: display(v.Name, v.Value)})
	}

	res := s.deps.Settings.Runtime().Current()

	configVars := make([]Layer, 0)
	if res != nil {
		for _, e := range res.Entries() {
			configVars = append(configVars, Layer{Name: e.Key, Value: display(e.Key, e.Value), Source: e.Source})
		}
	}

	stored, err := s.deps.Store.Many(ctx, appconfig.Keys())
	if err != nil {
		return err
	}

	dbSettings := make([]Layer, 0, len(stored))
	for _, key := range appconfig.Keys() {
		value, ok := stored[key]
		if !ok {
			continue
		}

		if b, isBool := setting.ParseBool(value); isBool && appconfig.IsBool(key) {
			value = setting.FormatBool(b)
		}

		dbSettings = append(dbSettings, Layer{Name: key, Value: display(key, value)})
	}

	return s.deps.Pages.Render(c, EnvironmentComponent, fiber.Map{
		"breadcrumbs": navigation.Settings().Add("Environment", EnvironmentPath),
		"envVars":     envVars,
		"configVars":  configVars,
		"dbSettings":  dbSettings,
	})
}
