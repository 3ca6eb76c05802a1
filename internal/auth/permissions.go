package auth

import "github.com/panelkit/panelkit/internal/db/models"

// Permission constants define the available permissions in the system.
const (
	// PermDashboardView allows viewing the user dashboard.
	PermDashboardView = "dashboard.view"

	// PermAdminDashboard allows viewing the admin dashboard with recent activities.
	PermAdminDashboard = "admin.dashboard"
	// PermAdminUsers allows managing user accounts.
	PermAdminUsers = "admin.users"
	// PermAdminSettings allows managing application-wide settings.
	PermAdminSettings = "admin.settings"
	// PermAdminEnvironment allows viewing the environment and configuration layers.
	PermAdminEnvironment = "admin.environment"
	// PermAdminActivities allows viewing the activity log.
	PermAdminActivities = "admin.activities"
)

// PermissionDef describes a permission seeded at startup.
type PermissionDef struct {
	Name        string
	Resource    string
	Action      string
	Description string
}

// Permissions lists every permission the application knows.
func Permissions() []PermissionDef {
	return []PermissionDef{
		{PermDashboardView, "dashboard", "view", "View the dashboard"},
		{PermAdminDashboard, "admin", "dashboard", "View the admin dashboard"},
		{PermAdminUsers, "admin", "users", "Manage user accounts"},
		{PermAdminSettings, "admin", "settings", "Manage application settings"},
		{PermAdminEnvironment, "admin", "environment", "View environment and configuration"},
		{PermAdminActivities, "admin", "activities", "View the activity log"},
	}
}

// RolePermissions maps each system role to its permissions.
func RolePermissions() map[string][]string {
	return map[string][]string{
		models.RoleAdmin: {
			PermDashboardView,
			PermAdminDashboard,
			PermAdminUsers,
			PermAdminSettings,
			PermAdminEnvironment,
			PermAdminActivities,
		},
		models.RoleUser: {
			PermDashboardView,
		},
	}
}
