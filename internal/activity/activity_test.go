package activity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/pagination"
	"github.com/panelkit/panelkit/internal/testutil"
)

func TestSubjectLabel(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		want  string
	}{
		{"name wins", map[string]any{"attributes": map[string]any{"email": "a@b.c", "name": "Ann"}}, "Ann"},
		{"priority order", map[string]any{"attributes": map[string]any{"heading": "H", "title": "T"}}, "T"},
		{"falls back to old", map[string]any{"attributes": map[string]any{}, "old": map[string]any{"email": "o@b.c"}}, "o@b.c"},
		{"attributes before old", map[string]any{"attributes": map[string]any{"email": "n@b.c"}, "old": map[string]any{"name": "Old"}}, "n@b.c"},
		{"blank skipped", map[string]any{"attributes": map[string]any{"name": " ", "label": "L"}}, "L"},
		{"non string skipped", map[string]any{"attributes": map[string]any{"name": 42.0, "subject": "S"}}, "S"},
		{"nothing", map[string]any{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubjectLabel(tt.props))
		})
	}
}

func TestDiff(t *testing.T) {
	attrs, old := Diff(
		map[string]any{"name": "Ann", "email": "ann@example.com"},
		map[string]any{"name": "Anna", "email": "ann@example.com"},
		[]string{"name", "email"},
	)

	assert.Equal(t, map[string]any{"name": "Anna"}, attrs)
	assert.Equal(t, map[string]any{"name": "Ann"}, old)
}

func TestUserEvents(t *testing.T) {
	db := testutil.DB(t)
	l := NewLogger(db)
	ctx := context.Background()

	admin := &models.User{Name: "Admin", Email: "admin@example.com", Password: "x"}
	require.NoError(t, db.Create(admin).Error)

	user := &models.User{Name: "Ann", Email: "ann@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	tx := db.WithContext(WithCauser(ctx, admin.ID))

	require.NoError(t, l.UserCreated(tx, user))

	same := *user
	require.NoError(t, l.UserUpdated(tx, user, &same))

	renamed := *user
	renamed.Name = "Anna"
	require.NoError(t, l.UserUpdated(tx, user, &renamed))

	require.NoError(t, l.UserDeleted(db, &renamed))

	page, err := l.ForSubject(ctx, SubjectUser, user.ID, pagination.Request{Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)

	deleted, updated, created := page.Data[0], page.Data[1], page.Data[2]

	assert.Equal(t, EventDeleted, deleted.Event)
	assert.Equal(t, "System", deleted.Causer.Name)
	assert.Nil(t, deleted.Causer.ID)
	require.NotNil(t, deleted.SubjectLabel)
	assert.Equal(t, "Anna", *deleted.SubjectLabel)

	assert.Equal(t, EventUpdated, updated.Description)
	assert.Equal(t, map[string]any{"name": "Anna"}, updated.Properties["attributes"])
	assert.Equal(t, map[string]any{"name": "Ann"}, updated.Properties["old"])
	assert.Equal(t, "Admin", updated.Causer.Name)

	assert.Equal(t, EventCreated, created.Event)
	require.NotNil(t, created.SubjectLabel)
	assert.Equal(t, "Ann", *created.SubjectLabel)
}

func TestRecentKeepsSoftDeletedCauser(t *testing.T) {
	db := testutil.DB(t)
	l := NewLogger(db)
	ctx := context.Background()

	admin := &models.User{Name: "Gone", Email: "gone@example.com", Password: "x"}
	require.NoError(t, db.Create(admin).Error)

	require.NoError(t, l.Log(WithCauser(ctx, admin.ID), Entry{Description: "settings updated"}))
	require.NoError(t, db.Delete(admin).Error)

	for i := 0; i < 11; i++ {
		require.NoError(t, l.Log(ctx, Entry{Description: "noise"}))
	}

	first, err := l.Recent(ctx, pagination.Request{Page: 1, Path: "/admin/dashboard"})
	require.NoError(t, err)
	assert.Len(t, first.Data, 10)
	assert.EqualValues(t, 12, first.Total)

	second, err := l.Recent(ctx, pagination.Request{Page: 2, Path: "/admin/dashboard"})
	require.NoError(t, err)
	require.Len(t, second.Data, 2)

	oldest := second.Data[1]
	assert.Equal(t, "settings updated", oldest.Description)
	assert.Equal(t, DefaultLogName, oldest.LogName)
	assert.Equal(t, "Gone", oldest.Causer.Name)
	assert.Nil(t, oldest.SubjectLabel)
}
