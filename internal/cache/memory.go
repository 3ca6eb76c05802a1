package cache

import (
	"context"
	"sync/atomic"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is an in-process cache. It is the default backend for single instance deployments.
type Memory struct {
	items  *ttlcache.Cache[string, string]
	closed atomic.Bool
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		items: ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if m.closed.Load() {
		return "", false, ErrClosed
	}

	item := m.items.Get(key)
	if item == nil {
		return "", false, nil
	}

	return item.Value(), true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key, value string) error {
	if m.closed.Load() {
		return ErrClosed
	}

	m.items.Set(key, value, ttlcache.NoTTL)

	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	if m.closed.Load() {
		return ErrClosed
	}

	for _, key := range keys {
		m.items.Delete(key)
	}

	return nil
}

// Close implements Cache.
func (m *Memory) Close() error {
	if m.closed.CompareAndSwap(false, true) {
		m.items.DeleteAll()
	}

	return nil
}
