package appconfig

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/cache"
	"github.com/panelkit/panelkit/internal/db/controller/setting"
	"github.com/panelkit/panelkit/internal/secret"
	"github.com/panelkit/panelkit/internal/testutil"
)

func newTestService(t *testing.T, env testutil.EnvMap) (*Service, *setting.Store) {
	t.Helper()

	store := setting.NewStore(testutil.DB(t), cache.NewMemory())

	return NewService(store, env, NewRuntime()), store
}

func boolPtr(b bool) *bool {
	return &b
}

func TestResolveDefaults(t *testing.T) {
	svc, _ := newTestService(t, nil)

	res, err := svc.Resolver().Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Laravel", res.AppName)
	assert.Equal(t, "http://localhost", res.AppURL)
	assert.False(t, res.AppDebug)
	assert.Equal(t, "en", res.AppLocale)
	assert.Equal(t, "en", res.AppFallbackLocale)
	assert.Equal(t, "us-east-1", res.AWS.DefaultRegion)
	assert.Empty(t, res.AWS.Bucket)
	assert.False(t, res.AWS.Configured())
	assert.True(t, res.RegistrationEnabled)
	assert.True(t, res.AccountDeletionEnabled)
	assert.True(t, res.TwoFactor)
	assert.True(t, res.AppearanceSettings)
	assert.Equal(t, "system", res.DefaultAppearance)
	assert.True(t, res.ShowPasswordToggle)
	assert.False(t, res.DisableWelcomePage)

	for _, entry := range res.Entries() {
		assert.Equal(t, SourceDefault, entry.Source, entry.Key)
	}
}

func TestResolvePrecedence(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, testutil.EnvMap{
		"APP_NAME":   "From Env",
		"APP_LOCALE": "ja",
		"APP_DEBUG":  "true",
		"AWS_BUCKET": "mybucket",
	})

	require.NoError(t, store.SetMany(ctx, map[string]string{
		KeyAppName:  "From DB",
		KeyAppDebug: "0",
	}))

	res, err := svc.Resolver().Resolve(ctx)
	require.NoError(t, err)

	assert.Equal(t, "From DB", res.AppName)
	assert.Equal(t, SourceDatabase, res.Source(KeyAppName))
	assert.Equal(t, "ja", res.AppLocale)
	assert.Equal(t, SourceEnvironment, res.Source(KeyAppLocale))
	assert.False(t, res.AppDebug)
	assert.Equal(t, SourceDatabase, res.Source(KeyAppDebug))
	assert.Equal(t, "mybucket", res.AWS.Bucket)
	assert.Equal(t, "en", res.AppFallbackLocale)
	assert.Equal(t, SourceDefault, res.Source(KeyAppFallbackLocale))
}

func TestResolveUnparseableBoolean(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, testutil.EnvMap{
		"APP_DEBUG":            "yes",
		"DISABLE_WELCOME_PAGE": "maybe",
	})

	require.NoError(t, store.SetMany(ctx, map[string]string{KeyAppDebug: "garbage"}))

	res, err := svc.Resolver().Resolve(ctx)
	require.NoError(t, err)

	assert.True(t, res.AppDebug)
	assert.Equal(t, SourceEnvironment, res.Source(KeyAppDebug))
	assert.Equal(t, "1", res.Value(KeyAppDebug))
	assert.False(t, res.DisableWelcomePage)
	assert.Equal(t, SourceDefault, res.Source(KeyDisableWelcomePage))
}

func TestResolveIsRepeatable(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, testutil.EnvMap{"APP_URL": "https://example.test"})

	require.NoError(t, store.SetMany(ctx, map[string]string{KeyAppName: "Acme"}))

	first, err := svc.Reload(ctx)
	require.NoError(t, err)

	second, err := svc.Resolver().Resolve(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Entries(), second.Entries())
	assert.Same(t, first, svc.Runtime().Current())
}

func TestUpdateReseedsRuntime(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, testutil.EnvMap{"AWS_BUCKET": "mybucket"})

	_, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mybucket", svc.Runtime().Current().AWS.Bucket)

	var seen []string
	svc.Runtime().Subscribe(func(res *Resolved) {
		seen = append(seen, res.AWS.Bucket)
	})

	res, err := svc.Update(ctx, UpdateInput{
		AppName:           "Acme",
		AppURL:            "https://acme.test",
		AppDebug:          true,
		AppLocale:         "ja",
		AppFallbackLocale: "en",
		AWSBucket:         "override",
	})
	require.NoError(t, err)

	assert.Equal(t, "override", res.AWS.Bucket)
	assert.Equal(t, "Acme", svc.Runtime().Current().AppName)
	assert.Equal(t, "ja", svc.Runtime().Current().AppLocale)
	assert.Equal(t, []string{"mybucket", "override"}, seen)

	debug, err := store.Bool(ctx, KeyAppDebug, nil)
	require.NoError(t, err)
	require.NotNil(t, debug)
	assert.True(t, *debug)

	raw, err := store.Value(ctx, KeyAppDebug, "")
	require.NoError(t, err)
	assert.Equal(t, "1", raw)
}

func TestUpdateSecretMasking(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)

	base := UpdateInput{
		AppName:           "Acme",
		AppURL:            "https://acme.test",
		AppLocale:         "en",
		AppFallbackLocale: "en",
	}

	in := base
	in.AWSSecretAccessKey = "S1"
	_, err := svc.Update(ctx, in)
	require.NoError(t, err)

	stored, err := store.Value(ctx, KeyAWSSecretAccessKey, "")
	require.NoError(t, err)
	assert.Equal(t, "S1", stored)
	assert.Equal(t, secret.Mask, secret.Present(stored))

	in = base
	in.AWSSecretAccessKey = secret.Mask
	_, err = svc.Update(ctx, in)
	require.NoError(t, err)

	stored, err = store.Value(ctx, KeyAWSSecretAccessKey, "")
	require.NoError(t, err)
	assert.Equal(t, "S1", stored)

	in = base
	_, err = svc.Update(ctx, in)
	require.NoError(t, err)

	stored, err = store.Value(ctx, KeyAWSSecretAccessKey, "")
	require.NoError(t, err)
	assert.Equal(t, "S1", stored)

	in = base
	in.AWSSecretAccessKey = "S2"
	res, err := svc.Update(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "S2", res.AWS.SecretAccessKey)
}

func TestBuildBatch(t *testing.T) {
	batch := BuildBatch(UpdateInput{
		AppName:                 "Acme",
		AppURL:                  "https://acme.test",
		AppLocale:               "en",
		AppFallbackLocale:       "ja",
		AWSUsePathStyleEndpoint: true,
		AWSSecretAccessKey:      secret.Mask,
		RegistrationEnabled:     boolPtr(false),
	})

	assert.Equal(t, map[string]string{
		KeyAppName:                 "Acme",
		KeyAppURL:                  "https://acme.test",
		KeyAppDebug:                "0",
		KeyAppLocale:               "en",
		KeyAppFallbackLocale:       "ja",
		KeyAWSUsePathStyleEndpoint: "1",
		KeyRegistrationEnabled:     "0",
	}, batch)
}

type failingStore struct {
	SettingStore
}

var errWrite = errors.New("write failed")

func (failingStore) SetMany(context.Context, map[string]string) error {
	return errWrite
}

func TestUpdateFailureKeepsRuntime(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)
	svc.store = failingStore{SettingStore: store}

	before := svc.Runtime().Current()

	_, err := svc.Update(ctx, UpdateInput{AppName: "Acme"})
	require.ErrorIs(t, err, errWrite)
	assert.Same(t, before, svc.Runtime().Current())
}

// stallingStore holds the first armed read after it completed until release is closed.
type stallingStore struct {
	*setting.Store
	armed   atomic.Bool
	stalled chan struct{}
	release chan struct{}
}

func (s *stallingStore) Many(ctx context.Context, keys []string) (map[string]string, error) {
	values, err := s.Store.Many(ctx, keys)

	if s.armed.CompareAndSwap(true, false) {
		close(s.stalled)
		<-s.release
	}

	return values, err
}

func TestConcurrentUpdatesKeepRuntimeCurrent(t *testing.T) {
	ctx := context.Background()
	store := &stallingStore{
		Store:   setting.NewStore(testutil.DB(t), cache.NewMemory()),
		stalled: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewService(store, nil, NewRuntime())
	store.armed.Store(true)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, err := svc.Update(ctx, UpdateInput{AppName: "A"})
		assert.NoError(t, err)
	}()

	<-store.stalled

	go func() {
		defer wg.Done()

		_, err := svc.Update(ctx, UpdateInput{AppName: "B"})
		assert.NoError(t, err)
	}()

	// give the second update time to race the stalled one
	time.Sleep(50 * time.Millisecond)
	close(store.release)
	wg.Wait()

	stored, err := svc.Resolver().Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", stored.AppName)
	assert.Equal(t, stored.AppName, svc.Runtime().Current().AppName)
}

func TestResolveWithoutStore(t *testing.T) {
	_, err := NewResolver(nil, nil).Resolve(context.Background())
	require.ErrorIs(t, err, ErrStoreNil)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Len(t, keys, 17)
	assert.Equal(t, KeyAppName, keys[0])
	assert.Contains(t, keys, KeyAWSBucket)
}

func TestIsBool(t *testing.T) {
	assert.True(t, IsBool(KeyAppDebug))
	assert.True(t, IsBool(KeyTwoFactor))
	assert.False(t, IsBool(KeyAppName))
	assert.False(t, IsBool("unknown.key"))
}
