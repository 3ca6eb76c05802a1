package fiber_test

import (
	"bufio"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/logger"
	adapter "github.com/panelkit/panelkit/internal/logger/adapter/fiber"
)

const (
	accessFile    = "access.log"
	checkAliveURI = "/checkalive"
)

type accessLine struct {
	Status  int     `json:"status"`
	URI     string  `json:"URI"`
	Method  string  `json:"method"`
	Inertia bool    `json:"inertia"`
	UserID  *uint64 `json:"user_id"`
	Error   string  `json:"error"`
	Perf    float64 `json:"X-Performance"`
}

// newAccessApp returns an app logging to a file in dir.
func newAccessApp(dir string, disableCheckAlive bool, next func(c *fiber.Ctx) bool) *fiber.App {
	app := fiber.New()

	app.Use(adapter.New(adapter.Config{
		Next: next,
		Config: logger.Log{
			DisableCheckAlive: disableCheckAlive,
			File:              logger.LogFile{Enabled: true, Path: dir, AccessLog: accessFile},
		},
		CheckAliveURI: checkAliveURI,
	}))

	app.Get("/users", func(c *fiber.Ctx) error {
		return c.SendString("users")
	})
	app.Get("/dashboard", func(c *fiber.Ctx) error {
		c.Locals(adapter.UserIDLocal, uint64(7))

		return c.SendString("dashboard")
	})
	app.Get(checkAliveURI, func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/missing", func(_ *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	return app
}

func readAccessLog(t *testing.T, dir string) []accessLine {
	t.Helper()

	f, err := os.Open(filepath.Join(dir, accessFile))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	defer f.Close()

	var lines []accessLine

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var l accessLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &l), scanner.Text())
		lines = append(lines, l)
	}

	require.NoError(t, scanner.Err())

	return lines
}

func TestAccessLog(t *testing.T) {
	var userID uint64 = 7

	tests := []struct {
		name              string
		target            string
		inertia           bool
		disableCheckAlive bool
		want              *accessLine
	}{
		{
			name:   "plain visit with query",
			target: "/users?page=2",
			want:   &accessLine{Status: fiber.StatusOK, URI: "/users?page=2", Method: fiber.MethodGet},
		},
		{
			name:    "page request of a signed in user",
			target:  "/dashboard",
			inertia: true,
			want: &accessLine{Status: fiber.StatusOK, URI: "/dashboard", Method: fiber.MethodGet,
				Inertia: true, UserID: &userID},
		},
		{
			name:   "handler error goes through the error handler",
			target: "/missing",
			want: &accessLine{Status: fiber.StatusNotFound, URI: "/missing", Method: fiber.MethodGet,
				Error: "Not Found"},
		},
		{
			name:   "checkalive is logged by default",
			target: checkAliveURI,
			want:   &accessLine{Status: fiber.StatusOK, URI: checkAliveURI, Method: fiber.MethodGet},
		},
		{
			name:              "checkalive suppressed",
			target:            checkAliveURI,
			disableCheckAlive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			app := newAccessApp(dir, tt.disableCheckAlive, nil)

			req := httptest.NewRequest(fiber.MethodGet, tt.target, nil)
			if tt.inertia {
				req.Header.Set("X-Inertia", "true")
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Header.Get("X-Performance"))

			lines := readAccessLog(t, dir)
			if tt.want == nil {
				assert.Empty(t, lines)
				return
			}

			require.Len(t, lines, 1)

			got := lines[0]
			assert.Equal(t, tt.want.Status, resp.StatusCode)
			assert.Equal(t, tt.want.Status, got.Status)
			assert.Equal(t, tt.want.URI, got.URI)
			assert.Equal(t, tt.want.Method, got.Method)
			assert.Equal(t, tt.want.Inertia, got.Inertia)
			assert.Equal(t, tt.want.UserID, got.UserID)
			assert.Equal(t, tt.want.Error, got.Error)
			assert.GreaterOrEqual(t, got.Perf, 0.0)
		})
	}
}

func TestAccessLogNextSkips(t *testing.T) {
	dir := t.TempDir()
	app := newAccessApp(dir, false, func(c *fiber.Ctx) bool {
		return c.Path() == "/users"
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/users", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Performance"))
	assert.Empty(t, readAccessLog(t, dir))
}

func TestAccessLogWithoutWriters(t *testing.T) {
	app := fiber.New()
	app.Use(adapter.New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("root")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
