// Package handler holds what the page handlers share: their dependencies, form parsing
// and the redirect helpers.
package handler

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/activity"
	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/config"
	"github.com/panelkit/panelkit/internal/db/controller/setting"
	"github.com/panelkit/panelkit/internal/feature"
	"github.com/panelkit/panelkit/internal/media"
	"github.com/panelkit/panelkit/internal/notification"
	"github.com/panelkit/panelkit/internal/pagination"
	"github.com/panelkit/panelkit/internal/validation"
	"github.com/panelkit/panelkit/internal/web/inertia"
	"github.com/panelkit/panelkit/internal/web/session"
)

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// ErrNilDepsFatalLogMsg is used if app or deps are nil.
	ErrNilDepsFatalLogMsg = "app or deps is nil"

	// ServerErrorMessage is shown instead of internal error details.
	ServerErrorMessage = "Something went wrong. Please try again."
)

// ErrNilDeps is returned by Init when app or deps are missing.
var ErrNilDeps = errors.New(ErrNilDepsFatalLogMsg)

// Deps are the services handlers are built from.
type Deps struct {
	Cfg           *config.Config
	Env           config.Environment
	DB            *gorm.DB
	Pages         *inertia.Renderer
	Store         *setting.Store
	Settings      *appconfig.Service
	Features      *feature.Gate
	Auth          *auth.Service
	Users         *auth.LocalProvider
	TwoFactor     *auth.TwoFactor
	Throttle      *auth.Throttle
	Activity      *activity.Logger
	Notifications *notification.Service
	Media         *media.Service
	Validator     *validation.Validator
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}

// Check returns ErrNilDeps when app or deps is nil.
func Check(app *fiber.App, deps *Deps) error {
	if app == nil || deps == nil {
		return ErrNilDeps
	}

	return nil
}

// Context returns the request context carrying the current user as activity causer.
func Context(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()

	if user := auth.CurrentUser(c); user != nil {
		ctx = activity.WithCauser(ctx, user.ID)
	}

	return ctx
}

// Parse decodes the request body into in and validates it. Field failures are returned as
// validation.Errors.
func Parse(c *fiber.Ctx, v *validation.Validator, in any) error {
	if err := c.BodyParser(in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form data")
	}

	return v.Struct(in)
}

// Invalid flashes errs and the submitted values, then redirects back to the form.
func Invalid(c *fiber.Ctx, errs validation.Errors, old map[string]string, fallback string) error {
	session.From(c).FlashErrors(errs, old)

	return inertia.Back(c, fallback)
}

// Fail answers a failed form: validation errors go back to the form, other errors are returned.
func Fail(c *fiber.Ctx, err error, old map[string]string, fallback string) error {
	if errs, ok := validation.As(err); ok {
		return Invalid(c, errs, old, fallback)
	}

	return err
}

// Redirect flashes msg under kind and redirects to url.
func Redirect(c *fiber.Ctx, url, kind, msg string) error {
	if msg != "" {
		session.From(c).Flash(kind, msg)
	}

	return inertia.Redirect(c, url)
}

// Back flashes msg under kind and redirects to the previous page.
func Back(c *fiber.Ctx, fallback, kind, msg string) error {
	if msg != "" {
		session.From(c).Flash(kind, msg)
	}

	return inertia.Back(c, fallback)
}

// ServerError logs err and flashes a generic message.
func ServerError(c *fiber.Ctx, err error, fallback, msg string) error {
	log.Error().Err(err).Str("path", c.Path()).Msg(msg)

	return Back(c, fallback, session.FlashError, ServerErrorMessage)
}

// PageRequest reads the page coordinates of a list request. The query string is kept for the
// page links.
func PageRequest(c *fiber.Ctx) pagination.Request {
	query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		query = url.Values{}
	}

	return pagination.Request{
		Page:    c.QueryInt("page", 1),
		PerPage: pagination.DefaultPerPage,
		Path:    c.Path(),
		Query:   query,
	}
}

// ParamID parses the named route parameter as a record id. Malformed ids answer 404.
func ParamID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}

	return id, nil
}

// FormatID formats a record id for paths.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
