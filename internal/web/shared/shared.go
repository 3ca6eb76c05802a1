// Package shared computes the props every page receives.
package shared

import (
	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/feature"
	"github.com/panelkit/panelkit/internal/notification"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/navigation"
	"github.com/panelkit/panelkit/internal/web/session"
)

// Cookies read by the shared props.
const (
	SidebarCookie    = "sidebar_state"
	AppearanceCookie = "appearance"
)

// UserView is the authenticated user as sent to the client.
type UserView struct {
	ID               uint64        `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	EmailVerifiedAt  any           `json:"email_verified_at"`
	TwoFactorEnabled bool          `json:"two_factor_enabled"`
	Avatar           *string       `json:"avatar"`
	Roles            []models.Role `json:"roles"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
	IsAdmin          bool          `json:"is_admin"`
}

// Props returns the shared props function of the page renderer.
func Props(deps *handler.Deps) func(c *fiber.Ctx) (fiber.Map, error) {
	return func(c *fiber.Ctx) (fiber.Map, error) {
		snap := deps.Features.For(c)
		res := snap.Resolved()
		sess := session.From(c)

		props := fiber.Map{
			"name":               res.AppName,
			"features":           snap.Shared(),
			"flash":              nil,
			"errors":             orEmpty(sess.Errors()),
			"old":                orEmpty(sess.Old()),
			"notifications":      []notification.View{},
			"locale":             res.AppLocale,
			"fallbackLocale":     res.AppFallbackLocale,
			"translations":       Translations(res.AppLocale),
			"breadcrumbs":        navigation.Trail{},
			"sidebarOpen":        SidebarOpen(c),
			"appearance":         Appearance(c, snap.IsEnabled(feature.AppearanceSettings), snap.DefaultAppearance()),
			"showPasswordToggle": res.ShowPasswordToggle,
		}

		if res.AppFallbackLocale != res.AppLocale {
			props["fallbackTranslations"] = Translations(res.AppFallbackLocale)
		} else {
			props["fallbackTranslations"] = map[string]any{}
		}

		if flashes := sess.Flashes(); len(flashes) > 0 {
			props["flash"] = flashes
		}

		user := auth.CurrentUser(c)
		if user == nil {
			props["auth"] = fiber.Map{"user": nil}

			return props, nil
		}

		view, err := NewUserView(c, deps, user)
		if err != nil {
			return nil, err
		}

		props["auth"] = fiber.Map{"user": view}

		latest, err := deps.Notifications.Latest(c.UserContext(), user.ID)
		if err != nil {
			return nil, err
		}

		props["notifications"] = latest

		return props, nil
	}
}

// NewUserView presents user with its avatar address.
func NewUserView(c *fiber.Ctx, deps *handler.Deps, user *models.User) (*UserView, error) {
	view := &UserView{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		TwoFactorEnabled: user.HasTwoFactorEnabled(),
		Roles:            user.Roles,
		CreatedAt:        user.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:        user.UpdatedAt.UTC().Format(timeLayout),
		IsAdmin:          user.IsAdmin(),
	}

	if user.EmailVerifiedAt != nil {
		view.EmailVerifiedAt = user.EmailVerifiedAt.UTC().Format(timeLayout)
	}

	if view.Roles == nil {
		view.Roles = []models.Role{}
	}

	if deps.Media != nil {
		url, err := deps.Media.AvatarURLFor(c.UserContext(), user)
		if err != nil {
			return nil, err
		}

		if url != "" {
			view.Avatar = &url
		}
	}

	return view, nil
}

const timeLayout = "2006-01-02T15:04:05.000000Z"

// SidebarOpen is true unless the sidebar cookie says otherwise.
func SidebarOpen(c *fiber.Ctx) bool {
	v := c.Cookies(SidebarCookie)

	return v == "" || v == "true"
}

// Appearance returns the appearance cookie, or def when absent or when appearance settings are off.
func Appearance(c *fiber.Ctx, enabled bool, def string) string {
	if !enabled {
		return def
	}

	if v := c.Cookies(AppearanceCookie); v != "" {
		return v
	}

	return def
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}

	return m
}
