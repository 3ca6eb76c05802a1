package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/activity"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/testutil"
)

func setupAuth(t *testing.T) (*gorm.DB, *Service, *LocalProvider) {
	t.Helper()

	db := testutil.DB(t)
	svc := NewService(db)
	require.NoError(t, svc.SeedRoles())

	return db, svc, NewLocalProvider(db, activity.NewLogger(db))
}

func TestSeedRolesIsIdempotent(t *testing.T) {
	db, svc, _ := setupAuth(t)
	require.NoError(t, svc.SeedRoles())

	var roles, perms, links int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	require.NoError(t, db.Model(&models.Permission{}).Count(&perms).Error)
	require.NoError(t, db.Model(&models.RolePermission{}).Count(&links).Error)

	assert.EqualValues(t, 2, roles)
	assert.EqualValues(t, len(Permissions()), perms)
	assert.EqualValues(t, len(RolePermissions()[models.RoleAdmin])+len(RolePermissions()[models.RoleUser]), links)
}

func TestPermissionsFollowRoles(t *testing.T) {
	_, svc, users := setupAuth(t)
	ctx := context.Background()

	admin, err := users.CreateUser(ctx, NewUser{Name: "Admin", Email: "admin@example.com", Password: "password",
		Roles: []string{models.RoleAdmin}})
	require.NoError(t, err)

	member, err := users.CreateUser(ctx, NewUser{Name: "Member", Email: "member@example.com", Password: "password",
		Roles: []string{models.RoleUser}})
	require.NoError(t, err)

	has, err := svc.HasPermission(admin.ID, PermAdminSettings)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = svc.HasPermission(member.ID, PermAdminSettings)
	require.NoError(t, err)
	assert.False(t, has)

	has, err = svc.HasAnyPermission(member.ID, []string{PermAdminUsers, PermDashboardView})
	require.NoError(t, err)
	assert.True(t, has)

	perms, err := svc.GetUserPermissions(member.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{PermDashboardView}, perms)

	isAdmin, err := svc.HasRole(member.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	require.NoError(t, svc.AssignRole(member.ID, models.RoleAdmin))
	require.NoError(t, svc.AssignRole(member.ID, models.RoleAdmin))

	isAdmin, err = svc.HasRole(member.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	require.NoError(t, svc.SyncRoles(member.ID, []string{models.RoleUser}))

	isAdmin, err = svc.HasRole(member.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	require.ErrorIs(t, svc.AssignRole(member.ID, "ghost"), ErrRoleNotFound)
}
