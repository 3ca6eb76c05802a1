package profile

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/web/webtest"
)

func TestEdit_SharesFeatures(t *testing.T) {
	deps := webtest.NewDeps(t, map[string]string{appconfig.KeyAccountDeletionEnabled: "0"})
	app := webtest.NewApp(t, deps, &Service{})

	client := webtest.NewClient(t, app)
	client.LoginAs(webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser))

	page := webtest.Page(t, client.Get(Path))
	assert.Equal(t, Component, page.Component)

	features, _ := page.Props["features"].(map[string]any)
	assert.Equal(t, false, features["accountDeletion"])
	assert.Equal(t, true, features["appearanceSettings"])
}

func TestUpdate(t *testing.T) {
	deps := webtest.NewDeps(t, nil)
	app := webtest.NewApp(t, deps, &Service{})
	member := webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)
	webtest.CreateUser(t, deps, "Other", "other@example.com", models.RoleUser)

	client := webtest.NewClient(t, app)
	client.LoginAs(member)

	resp := client.Form(http.MethodPatch, Path, url.Values{"name": {"Renamed"}, "email": {"other@example.com"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, MsgEmailTaken, client.Errors(Path)["email"])

	resp = client.Form(http.MethodPatch, Path, url.Values{"name": {"Renamed"}, "email": {"New@Example.com"}})
	assert.Equal(t, Path, webtest.Location(t, resp))
	assert.Equal(t, MsgUpdated, client.Flash(Path)["success"])

	stored, err := deps.Users.GetUserByID(t.Context(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Equal(t, "new@example.com", stored.Email)

	var activity models.Activity
	require.NoError(t, deps.DB.Where("event = ?", "updated").First(&activity).Error)
	require.NotNil(t, activity.CauserID)
	assert.Equal(t, member.ID, *activity.CauserID)
}

func TestDestroy(t *testing.T) {
	deps := webtest.NewDeps(t, nil)
	app := webtest.NewApp(t, deps, &Service{})
	member := webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)

	client := webtest.NewClient(t, app)
	client.LoginAs(member)

	resp := client.Form(http.MethodDelete, Path, url.Values{"password": {"wrong"}})
	assert.Equal(t, Path, webtest.Location(t, resp))
	assert.Equal(t, MsgWrongPassword, client.Errors(Path)["password"])

	resp = client.Form(http.MethodDelete, Path, url.Values{"password": {webtest.Password}})
	assert.Equal(t, "/", webtest.Location(t, resp))

	var stored models.User
	require.ErrorIs(t, deps.DB.First(&stored, member.ID).Error, gorm.ErrRecordNotFound)
	require.NoError(t, deps.DB.Unscoped().First(&stored, member.ID).Error)
	assert.True(t, stored.DeletedAt.Valid)

	assert.Equal(t, "/login", webtest.Location(t, client.Get(Path)))
}

func TestDestroy_Disabled(t *testing.T) {
	deps := webtest.NewDeps(t, map[string]string{appconfig.KeyAccountDeletionEnabled: "false"})
	app := webtest.NewApp(t, deps, &Service{})
	member := webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)

	client := webtest.NewClient(t, app)
	client.LoginAs(member)

	resp := client.Form(http.MethodDelete, Path, url.Values{"password": {webtest.Password}})
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, err := deps.Users.GetUserByID(t.Context(), member.ID)
	require.NoError(t, err)
}
