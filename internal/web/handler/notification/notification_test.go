package notification

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/notification"
	"github.com/panelkit/panelkit/internal/web/webtest"
)

func notify(t *testing.T, svc *notification.Service, userID uint64, title string) string {
	t.Helper()

	n, err := svc.Notify(t.Context(), userID, notification.TypeUserCreated, notification.Message{
		Type:    "info",
		Title:   title,
		Message: title + " message",
	})
	require.NoError(t, err)

	return n.ID
}

func unread(t *testing.T, views []notification.View) int {
	t.Helper()

	count := 0

	for _, v := range views {
		if !v.Read {
			count++
		}
	}

	return count
}

func TestReadAndDelete(t *testing.T) {
	deps := webtest.NewDeps(t, nil)
	app := webtest.NewApp(t, deps, &Service{})
	member := webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)
	other := webtest.CreateUser(t, deps, "Other", "other@example.com", models.RoleUser)

	first := notify(t, deps.Notifications, member.ID, "First")
	notify(t, deps.Notifications, member.ID, "Second")
	foreign := notify(t, deps.Notifications, other.ID, "Foreign")

	client := webtest.NewClient(t, app)
	client.LoginAs(member)

	resp := client.Form(http.MethodPost, Path+"/"+first+"/read", url.Values{})
	assert.Equal(t, "/dashboard", webtest.Location(t, resp))

	views, err := deps.Notifications.Latest(t.Context(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread(t, views))

	resp = client.Form(http.MethodPost, Path+"/"+foreign+"/read", url.Values{})
	assert.Equal(t, "/dashboard", webtest.Location(t, resp))

	views, err = deps.Notifications.Latest(t.Context(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread(t, views))

	resp = client.Form(http.MethodPost, Path+"/read-all", url.Values{})
	assert.Equal(t, "/dashboard", webtest.Location(t, resp))

	views, err = deps.Notifications.Latest(t.Context(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread(t, views))

	resp = client.Form(http.MethodDelete, Path+"/"+first, url.Values{})
	assert.Equal(t, "/dashboard", webtest.Location(t, resp))

	resp = client.Form(http.MethodDelete, Path+"/"+foreign, url.Values{})
	_ = resp.Body.Close()

	views, err = deps.Notifications.Latest(t.Context(), member.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	views, err = deps.Notifications.Latest(t.Context(), other.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestBackToReferer(t *testing.T) {
	deps := webtest.NewDeps(t, nil)
	app := webtest.NewApp(t, deps, &Service{})
	member := webtest.CreateUser(t, deps, "Member", "member@example.com", models.RoleUser)

	client := webtest.NewClient(t, app)
	client.LoginAs(member)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, "http://localhost"+Path+"/read-all", nil)
	require.NoError(t, err)
	req.Header.Set("Referer", "http://localhost/settings/profile")

	assert.Equal(t, "http://localhost/settings/profile", webtest.Location(t, client.Do(req)))
}
