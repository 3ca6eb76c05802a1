package cache

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requests = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "settings_cache_requests_total",
		Help: "Settings cache lookups, differentiated by backend and result.",
	},
	[]string{"backend", "result"},
)

// Instrumented counts hits, misses and errors of the wrapped cache.
type Instrumented struct {
	Cache
	backend string
}

// Instrument wraps c so every Get is counted under the given backend label.
func Instrument(c Cache, backend string) *Instrumented {
	return &Instrumented{Cache: c, backend: backend}
}

// Get implements Cache.
func (i *Instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := i.Cache.Get(ctx, key)

	switch {
	case err != nil:
		requests.WithLabelValues(i.backend, "error").Inc()
	case ok:
		requests.WithLabelValues(i.backend, "hit").Inc()
	default:
		requests.WithLabelValues(i.backend, "miss").Inc()
	}

	return value, ok, err
}
