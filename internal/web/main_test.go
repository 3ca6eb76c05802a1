package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/web/session"
	"github.com/panelkit/panelkit/internal/web/webtest"
)

func newService(t *testing.T) *Service {
	t.Helper()

	deps := webtest.NewDeps(t, nil)
	deps.Cfg.DevMode = false

	sessions, err := session.NewManager(memory.New(), time.Hour, false)
	require.NoError(t, err)

	svc, err := New(deps, sessions)
	require.NoError(t, err)

	return svc
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}

func TestNew_NilDeps(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestCheckAlive(t *testing.T) {
	svc := newService(t)

	resp, err := svc.App.Test(httptest.NewRequest(http.MethodGet, CheckAlivePath, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body(t, resp))

	svc.alive.Store(false)

	resp, err = svc.App.Test(httptest.NewRequest(http.MethodGet, CheckAlivePath, nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	svc := newService(t)

	resp, err := svc.App.Test(httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "go_goroutines")
}

func TestRootTemplate(t *testing.T) {
	svc := newService(t)

	resp, err := svc.App.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	html := body(t, resp)
	assert.Contains(t, html, `<div id="app" data-page="`)
	assert.Contains(t, html, "&#34;component&#34;:&#34;welcome&#34;")
	assert.Contains(t, html, "<title>Laravel</title>")
	assert.Contains(t, html, "/static/app.css?v="+webtest.Version)
}

func TestStatic(t *testing.T) {
	svc := newService(t)

	resp, err := svc.App.Test(httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "color-scheme")
}

func TestInertiaVisit(t *testing.T) {
	svc := newService(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("X-Inertia", "true")
	req.Header.Set("X-Inertia-Version", "stale")

	resp, err := svc.App.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Inertia-Location"))
}
