// Package auth provides authentication and authorization for the application.
//
// # Authentication
//
// LocalProvider authenticates users by email against the local database with Argon2id
// password hashing, and manages accounts (create, update, password change, soft delete).
// TwoFactor implements TOTP based second factor with single-use recovery codes.
// Throttle limits failed login attempts per email and client address.
//
// # Authorization
//
// Users hold roles through the user_roles join table and roles hold permissions through
// role_permissions:
//
//	User --(user_roles)--> Role --(role_permissions)--> Permission
//
// Service answers permission and role checks, and the middleware functions guard routes:
//
//	app.Get("/admin/users", auth.RequireRole(authService, models.RoleAdmin), handler)
//
// Unauthenticated requests are redirected to the login page, authenticated requests
// lacking a role or permission receive 403 Forbidden.
package auth
