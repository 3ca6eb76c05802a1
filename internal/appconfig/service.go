package appconfig

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/db/controller/setting"
	"github.com/panelkit/panelkit/internal/secret"
)

// SettingStore is the part of the settings store the Service needs.
type SettingStore interface {
	SettingReader
	SetMany(ctx context.Context, pairs map[string]string) error
}

// UpdateInput is a validated admin settings submission.
// Optional AWS fields left empty keep their stored value.
type UpdateInput struct {
	AppName           string
	AppURL            string
	AppDebug          bool
	AppLocale         string
	AppFallbackLocale string

	AWSAccessKeyID          string
	AWSSecretAccessKey      string //nolint:gosec
	AWSDefaultRegion        string
	AWSBucket               string
	AWSUsePathStyleEndpoint bool

	RegistrationEnabled    *bool
	AccountDeletionEnabled *bool
	TwoFactor              *bool
	AppearanceSettings     *bool
}

// Service applies settings updates and keeps the runtime in step with storage.
// Writes, resolution and seeding are serialized so the runtime never falls behind storage.
type Service struct {
	mu       sync.Mutex
	store    SettingStore
	resolver *Resolver
	runtime  *Runtime
}

// NewService creates a Service.
func NewService(store SettingStore, env EnvLookup, runtime *Runtime) *Service {
	return &Service{
		store:    store,
		resolver: NewResolver(store, env),
		runtime:  runtime,
	}
}

// Resolver returns the resolver used by the service.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Runtime returns the live configuration holder.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Reload resolves from storage and seeds the runtime.
func (s *Service) Reload(ctx context.Context) (*Resolved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reload(ctx)
}

func (s *Service) reload(ctx context.Context) (*Resolved, error) {
	res, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	s.runtime.Seed(res)

	return res, nil
}

// Update writes in as a single batch and re-seeds the runtime before returning.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Resolved, error) {
	batch := BuildBatch(in)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetMany(ctx, batch); err != nil {
		return nil, errors.Wrap(err, "failed to store settings")
	}

	log.Info().Strs("keys", sortedBatchKeys(batch)).Msg("application settings updated")

	res, err := s.reload(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload settings")
	}

	return res, nil
}

// BuildBatch converts in to the persisted key/value pairs.
func BuildBatch(in UpdateInput) map[string]string {
	batch := map[string]string{
		KeyAppName:                 in.AppName,
		KeyAppURL:                  in.AppURL,
		KeyAppDebug:                setting.FormatBool(in.AppDebug),
		KeyAppLocale:               in.AppLocale,
		KeyAppFallbackLocale:       in.AppFallbackLocale,
		KeyAWSUsePathStyleEndpoint: setting.FormatBool(in.AWSUsePathStyleEndpoint),
	}

	optional := map[string]string{
		KeyAWSAccessKeyID:   in.AWSAccessKeyID,
		KeyAWSDefaultRegion: in.AWSDefaultRegion,
		KeyAWSBucket:        in.AWSBucket,
	}
	for key, value := range optional {
		if value != "" {
			batch[key] = value
		}
	}

	if value, write := secret.Accept(in.AWSSecretAccessKey); write {
		batch[KeyAWSSecretAccessKey] = value
	}

	flags := map[string]*bool{
		KeyRegistrationEnabled:    in.RegistrationEnabled,
		KeyAccountDeletionEnabled: in.AccountDeletionEnabled,
		KeyTwoFactor:              in.TwoFactor,
		KeyAppearanceSettings:     in.AppearanceSettings,
	}
	for key, value := range flags {
		if value != nil {
			batch[key] = setting.FormatBool(*value)
		}
	}

	return batch
}

func sortedBatchKeys(batch map[string]string) []string {
	keys := make([]string, 0, len(batch))
	for _, key := range Keys() {
		if _, ok := batch[key]; ok {
			keys = append(keys, key)
		}
	}

	return keys
}
