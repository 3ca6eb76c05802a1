package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/web/session"
)

const (
	// UserLocal is the fiber local holding the authenticated *models.User.
	UserLocal = "user"
	// UserIDLocal is the fiber local holding the authenticated user id for access logs.
	UserIDLocal = "userID"

	// LoginPath is where guests are sent.
	LoginPath = "/login"
	// ConfirmPasswordPath is where stale password confirmations are sent.
	ConfirmPasswordPath = "/user/confirm-password"
)

// CurrentUser returns the authenticated user of the request, nil for guests.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(UserLocal).(*models.User)

	return u
}

// LoadUser resolves the session user and stores it in the request locals. A session pointing
// at a missing or deleted account is logged out.
func LoadUser(users *LocalProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.From(c)

		userID := sess.UserID()
		if userID == 0 {
			return c.Next()
		}

		user, err := users.GetUserByID(c.UserContext(), userID)
		if errors.Is(err, ErrUserNotFound) {
			log.Warn().Uint64("user_id", userID).Msg("session user no longer exists")
			sess.Logout()

			return c.Next()
		}

		if err != nil {
			return err
		}

		c.Locals(UserLocal, user)
		c.Locals(UserIDLocal, user.ID)

		return c.Next()
	}
}

// RequireAuth redirects guests to the login page, remembering the requested page.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) != nil {
			return c.Next()
		}

		if c.Method() == fiber.MethodGet {
			session.From(c).SetIntended(c.OriginalURL())
		}

		return c.Redirect(LoginPath)
	}
}

// RequireGuest sends authenticated users to their home page.
func RequireGuest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := CurrentUser(c); user != nil {
			return c.Redirect(HomePath(user))
		}

		return c.Next()
	}
}

// HomePath is the landing page of user after login.
func HomePath(user *models.User) string {
	if user.IsAdmin() {
		return "/admin/dashboard"
	}

	return "/dashboard"
}

// RequireRole creates Fiber middleware that requires the authenticated user to hold role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Redirect(LoginPath)
		}

		if !user.HasRole(role) {
			log.Warn().Uint64("user_id", user.ID).Str("role", role).Msg("User lacks required role")

			return fiber.NewError(fiber.StatusForbidden, "User does not have the right roles.")
		}

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Redirect(LoginPath)
		}

		hasPermission, err := authService.HasPermission(user.ID, permission)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Str("permission", permission).
				Msg("Failed to check permission")

			return fiber.ErrInternalServerError
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", user.ID).Str("permission", permission).
				Msg("User lacks required permission")

			return fiber.NewError(fiber.StatusForbidden, "User does not have the right permissions.")
		}

		return c.Next()
	}
}

// RequirePasswordConfirmed redirects to the confirmation page when the password was not
// confirmed within timeout.
func RequirePasswordConfirmed(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.From(c)
		if sess.PasswordConfirmedWithin(time.Now(), timeout) {
			return c.Next()
		}

		sess.SetIntended(c.OriginalURL())

		return c.Redirect(ConfirmPasswordPath)
	}
}
