package twofactor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/web/webtest"
)

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestLifecycle(t *testing.T) {
	deps := webtest.NewDeps(t, nil)
	app := webtest.NewApp(t, deps, &Service{})
	member := webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)

	client := webtest.NewClient(t, app)
	client.LoginAs(member)

	page := webtest.Page(t, client.Get(Path))
	assert.Equal(t, Component, page.Component)
	assert.Equal(t, false, page.Props["twoFactorEnabled"])

	resp := client.Get(SetupPath)
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = client.Form(http.MethodPost, ManagePath, url.Values{})
	assert.Equal(t, Path, webtest.Location(t, resp))

	page = webtest.Page(t, client.Get(Path))
	assert.Equal(t, true, page.Props["pendingConfirmation"])

	var setup struct {
		SecretKey string `json:"secretKey"`
		URL       string `json:"url"`
	}
	decode(t, client.Get(SetupPath), &setup)
	require.NotEmpty(t, setup.SecretKey)
	assert.Contains(t, setup.URL, "otpauth://totp/")

	code, err := totp.GenerateCode(setup.SecretKey, time.Now())
	require.NoError(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	resp = client.Form(http.MethodPost, ConfirmPath, url.Values{"code": {wrong}})
	assert.Equal(t, Path, webtest.Location(t, resp))
	assert.Equal(t, MsgInvalidCode, client.Errors(Path)["code"])

	resp = client.Form(http.MethodPost, ConfirmPath, url.Values{"code": {code}})
	assert.Equal(t, Path, webtest.Location(t, resp))
	assert.Equal(t, MsgConfirmed, client.Flash(Path)["success"])

	stored, err := deps.Users.GetUserByID(t.Context(), member.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasTwoFactorEnabled())

	var codes []string
	decode(t, client.Get(RecoveryCodesPath), &codes)
	assert.Len(t, codes, auth.RecoveryCodeCount)

	resp = client.Form(http.MethodPost, RecoveryCodesPath, url.Values{})
	assert.Equal(t, Path, webtest.Location(t, resp))

	var regenerated []string
	decode(t, client.Get(RecoveryCodesPath), &regenerated)
	assert.Len(t, regenerated, auth.RecoveryCodeCount)
	assert.NotEqual(t, codes, regenerated)

	resp = client.Form(http.MethodDelete, ManagePath, url.Values{})
	assert.Equal(t, Path, webtest.Location(t, resp))

	stored, err = deps.Users.GetUserByID(t.Context(), member.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasTwoFactorEnabled())
	assert.Empty(t, stored.RecoveryCodes())
}

func TestConfirm_Validation(t *testing.T) {
	deps := webtest.NewDeps(t, nil)
	app := webtest.NewApp(t, deps, &Service{})

	client := webtest.NewClient(t, app)
	client.LoginAs(webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser))

	resp := client.Form(http.MethodPost, ConfirmPath, url.Values{"code": {"12"}})
	assert.Equal(t, Path, webtest.Location(t, resp))
	assert.Equal(t, "The code field must be 6 characters.", client.Errors(Path)["code"])

	resp = client.Form(http.MethodPost, ConfirmPath, url.Values{"code": {"123456"}})
	assert.Equal(t, Path, webtest.Location(t, resp))
	assert.Equal(t, MsgNotEnabled, client.Errors(Path)["code"])
}

func TestHiddenWhenDisabled(t *testing.T) {
	deps := webtest.NewDeps(t, map[string]string{appconfig.KeyTwoFactor: "false"})
	app := webtest.NewApp(t, deps, &Service{})

	client := webtest.NewClient(t, app)
	client.LoginAs(webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser))

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, Path, nil),
		httptest.NewRequest(http.MethodPost, ManagePath, nil),
		httptest.NewRequest(http.MethodGet, RecoveryCodesPath, nil),
	} {
		resp := client.Do(req)
		_ = resp.Body.Close()
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, req.URL.Path)
	}
}
