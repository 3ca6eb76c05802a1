package appconfig

import (
	"sync"
	"sync/atomic"
)

// Runtime holds the live configuration used while serving requests.
type Runtime struct {
	current atomic.Pointer[Resolved]

	mu          sync.Mutex
	subscribers []func(*Resolved)
}

// NewRuntime creates a Runtime seeded with the literal defaults.
func NewRuntime() *Runtime {
	rt := &Runtime{}
	rt.current.Store(resolve(nil, nil))

	return rt
}

// Current returns the live snapshot. It is never nil.
func (rt *Runtime) Current() *Resolved {
	return rt.current.Load()
}

// Seed swaps in res and notifies subscribers in registration order.
func (rt *Runtime) Seed(res *Resolved) {
	if res == nil {
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.current.Store(res)

	for _, fn := range rt.subscribers {
		fn(res)
	}
}

// Subscribe registers fn to run on every Seed. fn is called once immediately with the current snapshot.
func (rt *Runtime) Subscribe(fn func(*Resolved)) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.subscribers = append(rt.subscribers, fn)
	fn(rt.current.Load())
}
