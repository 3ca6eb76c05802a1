package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/cache"
	"github.com/panelkit/panelkit/internal/config"
	"github.com/panelkit/panelkit/internal/db/controller/setting"
	"github.com/panelkit/panelkit/internal/secret"
	"github.com/panelkit/panelkit/internal/testutil"
)

func TestDumpConfig_MasksPasswords(t *testing.T) {
	c := config.Config{
		DB:    config.DB{User: "panelkit", Password: "db-secret"},
		Cache: config.Cache{Valkey: config.Valkey{Password: "valkey-secret"}},
	}

	for _, asJSON := range []bool{false, true} {
		out, err := dumpConfig(c, asJSON)
		require.NoError(t, err)
		assert.NotContains(t, out, "db-secret")
		assert.NotContains(t, out, "valkey-secret")
		assert.Contains(t, out, secret.Mask)
		assert.Contains(t, out, "panelkit")
	}

	assert.Equal(t, "db-secret", c.DB.Password, "caller's config is untouched")
}

func TestSettingsCommands(t *testing.T) {
	ctx := context.Background()
	store := setting.NewStore(testutil.DB(t), cache.NewMemory())

	var out bytes.Buffer

	require.NoError(t, settingsSet(ctx, store, &out, []string{"app.name", "Acme"}))
	require.NoError(t, settingsSet(ctx, store, &out, []string{"aws.secret_access_key", "s3cr3t"}))
	assert.Equal(t, "app.name updated\naws.secret_access_key updated\n", out.String())

	out.Reset()
	require.NoError(t, settingsGet(ctx, store, &out, []string{"app.name"}))
	assert.Equal(t, "Acme\n", out.String())

	out.Reset()
	require.NoError(t, settingsList(ctx, store, &out, nil))
	assert.Equal(t, "app.name=Acme\naws.secret_access_key="+secret.Mask+"\n", out.String())

	out.Reset()
	require.NoError(t, settingsFlush(ctx, store, &out, nil))
	assert.Equal(t, "settings cache flushed\n", out.String())

	require.NoError(t, settingsDelete(ctx, store, &out, []string{"app.name"}))
	err := settingsGet(ctx, store, &out, []string{"app.name"})
	require.ErrorIs(t, err, ErrSettingNotSet)

	err = settingsDelete(ctx, store, &out, []string{"app.name"})
	require.ErrorIs(t, err, setting.ErrSettingNotFound)
}

func TestSettingsCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	toml := `
[Webserver]
Port = 8080
URL = "http://localhost:8080"

[DB]
GormEngine = "sqlite"
Name = "` + filepath.ToSlash(filepath.Join(dir, "panelkit.db")) + `"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.toml"), []byte(toml), 0o600))

	run := func(args ...string) string {
		var out bytes.Buffer

		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append(args, "--config", dir+string(filepath.Separator)))
		require.NoError(t, rootCmd.Execute())

		return out.String()
	}

	assert.Equal(t, "app.url updated\n", run("settings", "set", "app.url", "https://panel.example.com"))
	assert.Equal(t, "https://panel.example.com\n", run("settings", "get", "app.url"))
	assert.Contains(t, run("config"), `GormEngine = "sqlite"`)
}
