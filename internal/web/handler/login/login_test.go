package login

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/handler/dashboard"
	"github.com/panelkit/panelkit/internal/web/handler/register"
	"github.com/panelkit/panelkit/internal/web/webtest"
)

func setup(t *testing.T) (*handler.Deps, *fiber.App) {
	t.Helper()

	deps := webtest.NewDeps(t, nil)

	return deps, webtest.NewApp(t, deps, &Service{}, &dashboard.Service{})
}

func credentials(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestGet(t *testing.T) {
	_, app := setup(t)

	page := webtest.Page(t, webtest.NewClient(t, app).Get(Path))
	assert.Equal(t, Component, page.Component)
	assert.Equal(t, true, page.Props["canRegister"])
}

func TestPost_Success(t *testing.T) {
	deps, app := setup(t)
	member := webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)
	webtest.CreateUser(t, deps, "Admin", "admin@example.com", models.RoleAdmin)

	client := webtest.NewClient(t, app)
	resp := client.Form(http.MethodPost, Path, credentials("Member@Example.com", webtest.Password))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, dashboard.Path, webtest.Location(t, resp))

	assert.Equal(t, MsgSuccess, client.Flash(dashboard.Path)["success"])

	var stored models.User
	require.NoError(t, deps.DB.First(&stored, member.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)

	admin := webtest.NewClient(t, app)
	resp = admin.Form(http.MethodPost, Path, credentials("admin@example.com", webtest.Password))
	assert.Equal(t, "/admin/dashboard", webtest.Location(t, resp))
}

func TestPost_RedirectsToIntendedPage(t *testing.T) {
	deps, app := setup(t)
	webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)

	client := webtest.NewClient(t, app)
	assert.Equal(t, Path, webtest.Location(t, client.Get(dashboard.Path+"?tab=2")))

	resp := client.Form(http.MethodPost, Path, credentials("member@example.com", webtest.Password))
	assert.Equal(t, dashboard.Path+"?tab=2", webtest.Location(t, resp))
}

func TestPost_Invalid(t *testing.T) {
	deps, app := setup(t)
	webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)

	tests := []struct {
		name   string
		values url.Values
		field  string
		want   string
	}{
		{
			name:   "wrong password",
			values: credentials("member@example.com", "nope"),
			field:  "email",
			want:   MsgFailed,
		},
		{
			name:   "unknown user",
			values: credentials("ghost@example.com", webtest.Password),
			field:  "email",
			want:   MsgFailed,
		},
		{
			name:   "missing password",
			values: url.Values{"email": {"member@example.com"}},
			field:  "password",
			want:   "The password field is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := webtest.NewClient(t, app)

			resp := client.Form(http.MethodPost, Path, tt.values)
			assert.Equal(t, Path, webtest.Location(t, resp))

			page := webtest.Page(t, client.Get(Path))
			errs, _ := page.Props["errors"].(map[string]any)
			assert.Equal(t, tt.want, errs[tt.field])

			old, _ := page.Props["old"].(map[string]any)
			assert.Equal(t, tt.values.Get("email"), old["email"])
		})
	}
}

func TestPost_Throttled(t *testing.T) {
	deps, app := setup(t)
	webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)

	client := webtest.NewClient(t, app)

	for range deps.Cfg.Auth.LoginMaxAttempts {
		resp := client.Form(http.MethodPost, Path, credentials("member@example.com", "wrong"))
		_ = resp.Body.Close()
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
	}

	resp := client.Form(http.MethodPost, Path, credentials("member@example.com", webtest.Password))
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestTwoFactorChallenge(t *testing.T) {
	deps, app := setup(t)
	ctx := context.Background()

	member := webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)
	tfa, err := deps.TwoFactor.Enable(ctx, member)
	require.NoError(t, err)

	code, err := totp.GenerateCode(tfa.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, deps.TwoFactor.Confirm(ctx, member, code))

	client := webtest.NewClient(t, app)

	resp := client.Form(http.MethodPost, Path, credentials("member@example.com", webtest.Password))
	assert.Equal(t, ChallengePath, webtest.Location(t, resp))

	// not logged in yet
	assert.Equal(t, Path, webtest.Location(t, client.Get(dashboard.Path)))

	page := webtest.Page(t, client.Get(ChallengePath))
	assert.Equal(t, ChallengeComponent, page.Component)

	resp = client.Form(http.MethodPost, ChallengePath, url.Values{"code": {"000000"}})
	assert.Equal(t, ChallengePath, webtest.Location(t, resp))
	assert.Equal(t, MsgInvalidCode, client.Errors(ChallengePath)["code"])

	recovery := tfa.RecoveryCodes[0]
	resp = client.Form(http.MethodPost, ChallengePath, url.Values{"recovery_code": {recovery}})
	assert.Equal(t, dashboard.Path, webtest.Location(t, resp))

	stored, err := deps.Users.GetUserByID(ctx, member.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.RecoveryCodes(), recovery)
	assert.Len(t, stored.RecoveryCodes(), len(tfa.RecoveryCodes)-1)
}

func TestChallengeWithoutPendingLogin(t *testing.T) {
	_, app := setup(t)
	client := webtest.NewClient(t, app)

	assert.Equal(t, Path, webtest.Location(t, client.Get(ChallengePath)))
	assert.Equal(t, Path, webtest.Location(t, client.Form(http.MethodPost, ChallengePath, url.Values{"code": {"1"}})))
}

func TestTwoFactorChallenge_Throttled(t *testing.T) {
	deps, app := setup(t)
	ctx := context.Background()

	member := webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)
	tfa, err := deps.TwoFactor.Enable(ctx, member)
	require.NoError(t, err)

	code, err := totp.GenerateCode(tfa.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, deps.TwoFactor.Confirm(ctx, member, code))

	client := webtest.NewClient(t, app)
	resp := client.Form(http.MethodPost, Path, credentials("member@example.com", webtest.Password))
	require.Equal(t, ChallengePath, webtest.Location(t, resp))

	for range deps.Cfg.Auth.LoginMaxAttempts {
		resp = client.Form(http.MethodPost, ChallengePath, url.Values{"recovery_code": {"not-a-code"}})
		_ = resp.Body.Close()
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
	}

	// a valid recovery code no longer helps once locked out
	resp = client.Form(http.MethodPost, ChallengePath, url.Values{"recovery_code": {tfa.RecoveryCodes[0]}})
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	stored, err := deps.Users.GetUserByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.RecoveryCodes(), tfa.RecoveryCodes[0])
}

func TestRegistrationDisabled(t *testing.T) {
	deps := webtest.NewDeps(t, map[string]string{appconfig.KeyRegistrationEnabled: "0"})
	app := webtest.NewApp(t, deps, &Service{}, &register.Service{})
	client := webtest.NewClient(t, app)

	page := webtest.Page(t, client.Get(Path))
	assert.Equal(t, false, page.Props["canRegister"])

	features, ok := page.Props["features"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, features["registration"])

	resp := client.Form(http.MethodPost, register.Path, url.Values{
		"name":                  {"New"},
		"email":                 {"new@example.com"},
		"password":              {"password"},
		"password_confirmation": {"password"},
	})
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, deps.DB.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
