package setting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/cache"
)

// CachePrefix namespaces setting entries in the shared cache.
const CachePrefix = "settings."

// ErrInvalidation is returned when storage committed but the cache could not be invalidated.
var ErrInvalidation = errors.New("settings cache invalidation failed")

// CacheKey returns the cache key for a setting key.
func CacheKey(key string) string {
	return CachePrefix + key
}

// Store is the read-through cached view of the settings table.
//
// Readers hold the read lock for the whole miss path (storage read and cache fill), writers hold
// the write lock across commit and invalidation. A reader therefore never caches a value read
// before a concurrent commit, and in-process readers observe a batch either fully or not at all.
type Store struct {
	db    *gorm.DB
	cache cache.Cache

	mu     sync.RWMutex
	misses singleflight.Group

	maxValueLength int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxValueLength overrides DefaultMaxValueLength.
func WithMaxValueLength(n int) Option {
	return func(s *Store) {
		s.maxValueLength = n
	}
}

// NewStore creates a Store over db using c as cache.
func NewStore(db *gorm.DB, c cache.Cache, opts ...Option) *Store {
	s := &Store{
		db:             db,
		cache:          c,
		maxValueLength: DefaultMaxValueLength,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Lookup returns the stored value for key and whether it exists.
func (s *Store) Lookup(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrSettingKeyEmpty
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(ctx, key)
}

// Value returns the stored value for key, or def when no row exists.
func (s *Store) Value(ctx context.Context, key, def string) (string, error) {
	value, ok, err := s.Lookup(ctx, key)
	if err != nil {
		return def, err
	}

	if !ok {
		return def, nil
	}

	return value, nil
}

// Bool returns the stored value for key interpreted as a boolean.
// An empty stored string is false. Absent or unparseable values yield def.
func (s *Store) Bool(ctx context.Context, key string, def *bool) (*bool, error) {
	value, ok, err := s.Lookup(ctx, key)
	if err != nil || !ok {
		return def, err
	}

	b, valid := ParseBool(value)
	if !valid {
		return def, nil
	}

	return &b, nil
}

// Many returns the stored values of all present keys. Cache misses are read from storage in one
// query and cached; absent keys are not cached.
func (s *Store) Many(ctx context.Context, keys []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(keys))

	var missing []string

	for _, key := range keys {
		if key == "" {
			return nil, ErrSettingKeyEmpty
		}

		value, ok, err := s.cache.Get(ctx, CacheKey(key))
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("settings cache read failed, using storage")
		}

		if err == nil && ok {
			out[key] = value
			continue
		}

		missing = append(missing, key)
	}

	if len(missing) == 0 {
		return out, nil
	}

	stored, err := FindMany(ctx, s.db, missing)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	for key, value := range stored {
		if setErr := s.cache.Set(ctx, CacheKey(key), value); setErr != nil {
			log.Warn().Err(setErr).Str("key", key).Msg("settings cache fill failed")
		}

		out[key] = value
	}

	return out, nil
}

type missResult struct {
	value string
	found bool
}

// lookup expects the read lock to be held.
func (s *Store) lookup(ctx context.Context, key string) (string, bool, error) {
	cacheKey := CacheKey(key)

	value, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("settings cache read failed, using storage")
	} else if ok {
		return value, true, nil
	}

	res, err, _ := s.misses.Do(key, func() (any, error) {
		row, findErr := Find(ctx, s.db, key)
		if errors.Is(findErr, ErrSettingNotFound) {
			return missResult{}, nil
		}

		if findErr != nil {
			return nil, findErr
		}

		if setErr := s.cache.Set(ctx, cacheKey, row.Value); setErr != nil {
			log.Warn().Err(setErr).Str("key", key).Msg("settings cache fill failed")
		}

		return missResult{value: row.Value, found: true}, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}

	miss := res.(missResult) //nolint:forcetypeassert

	return miss.value, miss.found, nil
}

// Set writes a single setting and invalidates its cache entry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany writes all pairs in one transaction. Cache entries are invalidated only after the
// commit succeeded; on any failure nothing is written and the cache is left untouched.
func (s *Store) SetMany(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}

	for key := range pairs {
		if key == "" {
			return ErrSettingKeyEmpty
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := UpsertMany(ctx, s.db, pairs, s.maxValueLength); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	cacheKeys := make([]string, 0, len(pairs))
	for _, key := range sortedKeys(pairs) {
		cacheKeys = append(cacheKeys, CacheKey(key))
	}

	return s.invalidate(ctx, cacheKeys)
}

// Delete removes a setting row and its cache entry.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := DeleteByKey(ctx, s.db, key); err != nil {
		return err
	}

	return s.invalidate(ctx, []string{CacheKey(key)})
}

// FlushAll invalidates the cache entry of every persisted key. Rows are kept.
func (s *Store) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := Keys(ctx, s.db)
	if err != nil {
		return fmt.Errorf("list settings: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = CacheKey(key)
	}

	return s.invalidate(ctx, cacheKeys)
}

// Keys lists every persisted key, bypassing the cache.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return Keys(ctx, s.db)
}

// All returns every persisted key and value, bypassing the cache.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := GetAll(ctx, s.db)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}

	return out, nil
}

func (s *Store) invalidate(ctx context.Context, cacheKeys []string) error {
	if err := s.cache.Delete(ctx, cacheKeys...); err != nil {
		log.Error().Err(err).Strs("keys", cacheKeys).Msg("settings cache invalidation failed")

		return fmt.Errorf("%w: %w", ErrInvalidation, err)
	}

	return nil
}
