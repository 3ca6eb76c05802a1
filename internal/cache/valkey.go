package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// DefaultConnectTimeout is the maximum time to wait for the initial valkey ping.
const DefaultConnectTimeout = 5 * time.Second

// ValkeyConfig holds the connection settings of the shared cache.
type ValkeyConfig struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// Valkey is a cache shared between application instances.
type Valkey struct {
	client valkey.Client
	prefix string
}

var _ Cache = (*Valkey)(nil)

// NewValkey connects to valkey and verifies the connection with a ping.
func NewValkey(cfg ValkeyConfig) (*Valkey, error) {
	opts := valkey.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey (timeout: %v): %w", timeout, err)
	}

	return &Valkey{client: client, prefix: normalizePrefix(cfg.KeyPrefix)}, nil
}

func normalizePrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return prefix
}

func (v *Valkey) key(key string) string {
	return v.prefix + key
}

// Get implements Cache.
func (v *Valkey) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := v.client.Do(ctx, v.client.B().Get().Key(v.key(key)).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("valkey get %s: %w", key, err)
	}

	return value, true, nil
}

// Set implements Cache.
func (v *Valkey) Set(ctx context.Context, key, value string) error {
	if err := v.client.Do(ctx, v.client.B().Set().Key(v.key(key)).Value(value).Build()).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}

	return nil
}

// Delete implements Cache.
func (v *Valkey) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = v.key(key)
	}

	if err := v.client.Do(ctx, v.client.B().Del().Key(prefixed...).Build()).Error(); err != nil {
		return fmt.Errorf("valkey del: %w", err)
	}

	return nil
}

// Close implements Cache.
func (v *Valkey) Close() error {
	v.client.Close()

	return nil
}
