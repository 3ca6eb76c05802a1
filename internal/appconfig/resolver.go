package appconfig

import (
	"context"

	"github.com/pkg/errors"

	"github.com/panelkit/panelkit/internal/db/controller/setting"
)

// ErrStoreNil is returned when a Resolver has no settings store.
var ErrStoreNil = errors.New("settings store is nil")

// SettingReader reads persisted settings through the cache.
type SettingReader interface {
	Many(ctx context.Context, keys []string) (map[string]string, error)
}

// EnvLookup returns the raw value of an environment variable, "" when unset.
type EnvLookup interface {
	Lookup(name string) string
}

// Resolver derives the effective configuration. Bootstrap and the admin settings page both call
// Resolve, so identical rows always produce an identical Resolved.
type Resolver struct {
	store SettingReader
	env   EnvLookup
}

// NewResolver creates a Resolver.
func NewResolver(store SettingReader, env EnvLookup) *Resolver {
	return &Resolver{store: store, env: env}
}

// Resolve reads every persisted key in one pass and applies database > environment > default.
func (r *Resolver) Resolve(ctx context.Context) (*Resolved, error) {
	if r.store == nil {
		return nil, ErrStoreNil
	}

	persisted, err := r.store.Many(ctx, Keys())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read persisted settings")
	}

	return resolve(persisted, r.env), nil
}

// Env returns the environment layer the resolver was built with.
func (r *Resolver) Env() EnvLookup {
	return r.env
}

func resolve(persisted map[string]string, env EnvLookup) *Resolved {
	res := &Resolved{
		values:  make(map[string]string, len(definitions)),
		sources: make(map[string]Source, len(definitions)),
	}

	for _, d := range definitions {
		value, source := pick(d, persisted, env)
		res.values[d.key] = value
		res.sources[d.key] = source
	}

	res.fill()

	return res
}

// pick applies the precedence for one key. Boolean keys skip a layer holding an unparseable
// value; the literal fallback always parses.
func pick(d definition, persisted map[string]string, env EnvLookup) (string, Source) {
	if value, ok := persisted[d.key]; ok {
		if !d.boolean {
			return value, SourceDatabase
		}

		if b, valid := setting.ParseBool(value); valid {
			return setting.FormatBool(b), SourceDatabase
		}
	}

	if env != nil && d.env != "" {
		if value := env.Lookup(d.env); value != "" {
			if !d.boolean {
				return value, SourceEnvironment
			}

			if b, valid := setting.ParseBool(value); valid {
				return setting.FormatBool(b), SourceEnvironment
			}
		}
	}

	if d.boolean {
		b, _ := setting.ParseBool(d.fallback)

		return setting.FormatBool(b), SourceDefault
	}

	return d.fallback, SourceDefault
}
