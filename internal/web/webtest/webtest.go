// Package webtest builds a fully wired application for handler tests.
package webtest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/activity"
	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/cache"
	"github.com/panelkit/panelkit/internal/config"
	"github.com/panelkit/panelkit/internal/db/controller/setting"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/feature"
	"github.com/panelkit/panelkit/internal/media"
	"github.com/panelkit/panelkit/internal/notification"
	"github.com/panelkit/panelkit/internal/testutil"
	"github.com/panelkit/panelkit/internal/validation"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/inertia"
	"github.com/panelkit/panelkit/internal/web/middleware"
	"github.com/panelkit/panelkit/internal/web/session"
)

// Version is the asset version of test apps.
const Version = "test"

// Password is the password of users made by CreateUser.
const Password = "password"

const loginAsPath = "/_test/login/:id"

// Views renders the root template as the bare page object.
type Views struct{}

// Load implements fiber.Views.
func (Views) Load() error { return nil }

// Render implements fiber.Views.
func (Views) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	if m, ok := data.(fiber.Map); ok && name == inertia.DefaultRootTemplate {
		_, err := io.WriteString(w, m["Page"].(string))

		return err
	}

	_, err := io.WriteString(w, name)

	return err
}

// Config returns the process configuration used by test apps.
func Config() *config.Config {
	return &config.Config{
		DevMode: true,
		Webserver: config.Webserver{
			Port:         3000,
			URL:          "http://localhost",
			AssetVersion: Version,
			Session:      config.Session{ExpiryTime: time.Hour},
		},
		Auth: config.Auth{
			LoginMaxAttempts: 5,
			LoginDecay:       time.Minute,
			PasswordTimeout:  3 * time.Hour,
			TOTPIssuer:       "panelkit",
		},
	}
}

// NewDeps wires all services over a fresh in-memory database. settings are persisted
// before the runtime is seeded.
func NewDeps(t *testing.T, settings map[string]string) *handler.Deps {
	t.Helper()

	ctx := context.Background()
	cfg := Config()
	db := testutil.DB(t)

	store := setting.NewStore(db, cache.NewMemory())
	require.NoError(t, store.SetMany(ctx, settings))

	settingsService := appconfig.NewService(store, testutil.EnvMap{}, appconfig.NewRuntime())
	_, err := settingsService.Reload(ctx)
	require.NoError(t, err)

	authService := auth.NewService(db)
	require.NoError(t, authService.SeedRoles())

	activityLogger := activity.NewLogger(db)
	users := auth.NewLocalProvider(db, activityLogger)

	disks := media.NewManager(media.NewLocalDisk(t.TempDir()), "")
	disks.Watch(settingsService.Runtime())

	return &handler.Deps{
		Cfg:           cfg,
		DB:            db,
		Pages:         inertia.New(Version),
		Store:         store,
		Settings:      settingsService,
		Features:      feature.NewGate(settingsService.Runtime()),
		Auth:          authService,
		Users:         users,
		TwoFactor:     auth.NewTwoFactor(users, cfg.Auth.TOTPIssuer),
		Throttle:      auth.NewThrottle(int64(cfg.Auth.LoginMaxAttempts), cfg.Auth.LoginDecay),
		Activity:      activityLogger,
		Notifications: notification.NewService(db),
		Media:         media.NewService(db, disks),
		Validator:     validation.New(),
	}
}

// NewApp creates an app behind the page middleware and registers services on it.
func NewApp(t *testing.T, deps *handler.Deps, services ...handler.Service) *fiber.App {
	t.Helper()

	sessions, err := session.NewManager(memory.New(), time.Hour, true)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		Views:        Views{},
		ErrorHandler: middleware.ErrorHandler(deps.Pages),
	})
	middleware.Use(app, deps, sessions)

	app.Get(loginAsPath, func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return fiber.ErrBadRequest
		}

		sess := session.From(c)
		sess.Login(id)
		sess.ConfirmPassword(time.Now())

		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, s := range services {
		require.NoError(t, s.Init(app, deps))
	}

	return app
}

// CreateUser creates a user with Password and the given role.
func CreateUser(t *testing.T, deps *handler.Deps, name, email, role string) *models.User {
	t.Helper()

	u, err := deps.Users.CreateUser(context.Background(), auth.NewUser{
		Name:     name,
		Email:    email,
		Password: Password,
		Roles:    []string{role},
	})
	require.NoError(t, err)

	return u
}

// Client sends requests to an app and keeps its cookies.
type Client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
	Inertia bool
}

// NewClient creates a Client speaking the page protocol.
func NewClient(t *testing.T, app *fiber.App) *Client {
	return &Client{t: t, app: app, cookies: map[string]*http.Cookie{}, Inertia: true}
}

// LoginAs authenticates the client as u with a fresh password confirmation.
func (cl *Client) LoginAs(u *models.User) {
	cl.t.Helper()

	resp := cl.Do(httptest.NewRequest(http.MethodGet, strings.Replace(loginAsPath, ":id", strconv.FormatUint(u.ID, 10), 1), nil))
	_ = resp.Body.Close()
	require.Equal(cl.t, fiber.StatusNoContent, resp.StatusCode)
}

// SetCookie stores a cookie sent with every request.
func (cl *Client) SetCookie(name, value string) {
	cl.cookies[name] = &http.Cookie{Name: name, Value: value}
}

// Do sends req with the stored cookies and records returned cookies.
func (cl *Client) Do(req *http.Request) *http.Response {
	cl.t.Helper()

	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	if cl.Inertia {
		req.Header.Set(inertia.HeaderInertia, "true")
		req.Header.Set(inertia.HeaderVersion, Version)
	}

	resp, err := cl.app.Test(req, -1)
	require.NoError(cl.t, err)

	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(cl.cookies, c.Name)

			continue
		}

		cl.cookies[c.Name] = c
	}

	return resp
}

// Get sends a GET request.
func (cl *Client) Get(path string) *http.Response {
	return cl.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// Form sends form values with method.
func (cl *Client) Form(method, path string, values url.Values) *http.Response {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return cl.Do(req)
}

// Page decodes the page object of resp.
func Page(t *testing.T, resp *http.Response) inertia.Page {
	t.Helper()

	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page inertia.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))

	return page
}

// Location returns the redirect target of resp.
func Location(t *testing.T, resp *http.Response) string {
	t.Helper()

	_ = resp.Body.Close()

	return resp.Header.Get(fiber.HeaderLocation)
}

// Flash follows up with a GET of path and returns the flash prop.
func (cl *Client) Flash(path string) map[string]any {
	cl.t.Helper()

	page := Page(cl.t, cl.Get(path))
	flash, _ := page.Props["flash"].(map[string]any)

	return flash
}

// Errors follows up with a GET of path and returns the errors prop.
func (cl *Client) Errors(path string) map[string]any {
	cl.t.Helper()

	page := Page(cl.t, cl.Get(path))
	errs, _ := page.Props["errors"].(map[string]any)

	return errs
}
