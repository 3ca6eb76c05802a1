package dashboard

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/web/webtest"
)

func TestIndex(t *testing.T) {
	deps := webtest.NewDeps(t, nil)
	app := webtest.NewApp(t, deps, &Service{})
	admin := webtest.CreateUser(t, deps, "Admin", "admin@example.com", models.RoleAdmin)

	for i := range 11 {
		webtest.CreateUser(t, deps, "User "+string(rune('A'+i)), string(rune('a'+i))+"@example.com", models.RoleUser)
	}

	client := webtest.NewClient(t, app)
	client.LoginAs(admin)

	page := webtest.Page(t, client.Get(Path))
	assert.Equal(t, Component, page.Component)

	activities, ok := page.Props["recentActivities"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 12, activities["total"], 0)
	assert.InDelta(t, 2, activities["last_page"], 0)

	data, _ := activities["data"].([]any)
	require.Len(t, data, 10)

	latest, _ := data[0].(map[string]any)
	assert.Equal(t, "User K", latest["subject_label"])

	causer, _ := latest["causer"].(map[string]any)
	assert.Equal(t, "System", causer["name"])

	page = webtest.Page(t, client.Get(Path+"?page=2"))
	activities, _ = page.Props["recentActivities"].(map[string]any)
	data, _ = activities["data"].([]any)
	assert.Len(t, data, 2)
}

func TestIndex_Forbidden(t *testing.T) {
	deps := webtest.NewDeps(t, nil)
	app := webtest.NewApp(t, deps, &Service{})

	client := webtest.NewClient(t, app)
	assert.Equal(t, auth.LoginPath, webtest.Location(t, client.Get(Path)))

	client.LoginAs(webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser))

	resp := client.Get(Path)
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
