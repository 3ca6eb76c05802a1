package media

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/appconfig"
)

const s3BuildTimeout = 10 * time.Second

// Manager selects the active disk from the live configuration.
type Manager struct {
	local    Disk
	endpoint string

	mu sync.RWMutex
	s3 Disk
}

// NewManager creates a Manager. endpoint is passed to S3 clients.
func NewManager(local Disk, endpoint string) *Manager {
	return &Manager{local: local, endpoint: endpoint}
}

// Watch keeps the S3 disk in line with every runtime seed.
func (m *Manager) Watch(runtime *appconfig.Runtime) {
	runtime.Subscribe(m.Apply)
}

// Apply rebuilds the S3 disk from res. Without a bucket, or when the client cannot be built,
// new files go to the local disk.
func (m *Manager) Apply(res *appconfig.Resolved) {
	var disk Disk

	if res != nil && res.AWS.Configured() {
		ctx, cancel := context.WithTimeout(context.Background(), s3BuildTimeout)
		defer cancel()

		s3Disk, err := NewS3Disk(ctx, res.AWS, m.endpoint)
		if err != nil {
			log.Error().Err(err).Str("bucket", res.AWS.Bucket).Msg("failed to build s3 disk, using local disk")
		} else {
			log.Info().Str("bucket", s3Disk.Bucket()).Str("region", res.AWS.DefaultRegion).Msg("s3 disk ready")

			disk = s3Disk
		}
	}

	m.mu.Lock()
	m.s3 = disk
	m.mu.Unlock()
}

// Default returns the disk new files are written to.
func (m *Manager) Default() Disk {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.s3 != nil {
		return m.s3
	}

	return m.local
}

// Get returns the disk with the given name.
func (m *Manager) Get(name string) (Disk, error) {
	if name == DiskLocal {
		return m.local, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == DiskS3 && m.s3 != nil {
		return m.s3, nil
	}

	return nil, ErrUnknownDisk
}
