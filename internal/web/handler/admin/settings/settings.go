// Package settings provides the admin pages for application settings and the environment viewer.
package settings

import (
	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/db/controller/setting"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/secret"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/navigation"
	"github.com/panelkit/panelkit/internal/web/session"
)

const (
	// Path is the admin settings page.
	Path = handler.RootPath + "admin/settings"
	// EnvironmentPath is the environment viewer.
	EnvironmentPath = Path + "/environment"

	// Component is the admin settings page.
	Component = "admin/settings/index"
	// EnvironmentComponent is the environment viewer.
	EnvironmentComponent = "admin/settings/environment/index"

	// MsgUpdated is flashed after saving.
	MsgUpdated = "Settings updated successfully."
)

// Form is the submitted settings form. Booleans arrive as checkbox values; the feature flags
// are optional and left unchanged when absent.
type Form struct {
	AppName           string `form:"app_name"            label:"application name" validate:"required,max=255"`
	AppURL            string `form:"app_url"             label:"application URL"  validate:"required,url,max=255"`
	AppDebug          string `form:"app_debug"           label:"debug mode"       validate:"omitempty,boolean"`
	AppLocale         string `form:"app_locale"          label:"locale"           validate:"required,oneof=ja en"`
	AppFallbackLocale string `form:"app_fallback_locale" label:"fallback locale"  validate:"required,oneof=ja en"`

	AWSAccessKeyID          string `form:"aws_access_key_id"           label:"AWS access key ID"           validate:"max=255"`
	AWSSecretAccessKey      string `form:"aws_secret_access_key"       label:"AWS secret access key"       validate:"max=255"` //nolint:gosec
	AWSDefaultRegion        string `form:"aws_default_region"          label:"AWS default region"          validate:"max=255"`
	AWSBucket               string `form:"aws_bucket"                  label:"AWS bucket"                  validate:"max=255"`
	AWSUsePathStyleEndpoint string `form:"aws_use_path_style_endpoint" label:"AWS use path style endpoint" validate:"omitempty,boolean"`

	RegistrationEnabled    string `form:"registration_enabled"     label:"registration"              validate:"omitempty,boolean"`
	AccountDeletionEnabled string `form:"account_deletion_enabled" label:"account deletion"          validate:"omitempty,boolean"`
	TwoFactor              string `form:"two_factor_authentication" label:"two-factor authentication" validate:"omitempty,boolean"`
	AppearanceSettings     string `form:"appearance_settings"      label:"appearance settings"       validate:"omitempty,boolean"`
}

func checked(v string) bool {
	b, _ := setting.ParseBool(v)

	return b
}

func optional(v string) *bool {
	if v == "" {
		return nil
	}

	b := checked(v)

	return &b
}

// Input converts the form into a settings update.
func (f *Form) Input() appconfig.UpdateInput {
	return appconfig.UpdateInput{
		AppName:                 f.AppName,
		AppURL:                  f.AppURL,
		AppDebug:                checked(f.AppDebug),
		AppLocale:               f.AppLocale,
		AppFallbackLocale:       f.AppFallbackLocale,
		AWSAccessKeyID:          f.AWSAccessKeyID,
		AWSSecretAccessKey:      f.AWSSecretAccessKey,
		AWSDefaultRegion:        f.AWSDefaultRegion,
		AWSBucket:               f.AWSBucket,
		AWSUsePathStyleEndpoint: checked(f.AWSUsePathStyleEndpoint),
		RegistrationEnabled:     optional(f.RegistrationEnabled),
		AccountDeletionEnabled:  optional(f.AccountDeletionEnabled),
		TwoFactor:               optional(f.TwoFactor),
		AppearanceSettings:      optional(f.AppearanceSettings),
	}
}

func (f *Form) old() map[string]string {
	return map[string]string{
		"app_name":            f.AppName,
		"app_url":             f.AppURL,
		"app_locale":          f.AppLocale,
		"app_fallback_locale": f.AppFallbackLocale,
		"aws_access_key_id":   f.AWSAccessKeyID,
		"aws_default_region":  f.AWSDefaultRegion,
		"aws_bucket":          f.AWSBucket,
	}
}

// Service is the admin settings handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the admin settings handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireAuth(), auth.RequireRole(models.RoleAdmin))
		router.Get(handler.RootPath, auth.RequirePermission(deps.Auth, auth.PermAdminSettings), s.Index)
		router.Patch(handler.RootPath, auth.RequirePermission(deps.Auth, auth.PermAdminSettings), s.Update)
		router.Get("/environment",
			auth.RequirePermission(deps.Auth, auth.PermAdminEnvironment),
			auth.RequirePasswordConfirmed(deps.Cfg.Auth.PasswordTimeout),
			s.Environment,
		)
	})

	return nil
}

// Index renders the effective settings. The stored secret is only ever shown masked.
func (s *Service) Index(c *fiber.Ctx) error {
	res, err := s.deps.Settings.Resolver().Resolve(c.UserContext())
	if err != nil {
		return err
	}

	return s.deps.Pages.Render(c, Component, fiber.Map{
		"breadcrumbs":             navigation.Settings(),
		"appName":                 res.AppName,
		"appUrl":                  res.AppURL,
		"appDebug":                res.AppDebug,
		"appLocale":               res.AppLocale,
		"appFallbackLocale":       res.AppFallbackLocale,
		"awsAccessKeyId":          res.AWS.AccessKeyID,
		"awsSecretAccessKey":      secret.Present(res.AWS.SecretAccessKey),
		"awsDefaultRegion":        res.AWS.DefaultRegion,
		"awsBucket":               res.AWS.Bucket,
		"awsUsePathStyleEndpoint": res.AWS.UsePathStyleEndpoint,
		"registrationEnabled":     res.RegistrationEnabled,
		"accountDeletionEnabled":  res.AccountDeletionEnabled,
		"twoFactorAuthentication": res.TwoFactor,
		"appearanceSettings":      res.AppearanceSettings,
	})
}

// Update validates and stores the submission as one batch and re-seeds the runtime.
func (s *Service) Update(c *fiber.Ctx) error {
	form := new(Form)

	if err := handler.Parse(c, s.deps.Validator, form); err != nil {
		return handler.Fail(c, err, form.old(), Path)
	}

	if _, err := s.deps.Settings.Update(handler.Context(c), form.Input()); err != nil {
		return handler.ServerError(c, err, Path, "failed to update settings")
	}

	return handler.Back(c, Path, session.FlashSuccess, MsgUpdated)
}
