// Package media stores user files, currently the avatar, on a local or S3 disk.
package media

import (
	"context"
	"errors"
	"io"
)

// Disk names recorded on media rows.
const (
	DiskLocal = "local"
	DiskS3    = "s3"
)

var (
	// ErrMediaNotFound is returned when a file or media row does not exist.
	ErrMediaNotFound = errors.New("media not found")
	// ErrUnsupportedType is returned for uploads that are not jpeg, png, gif or webp images.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrInvalidPath is returned for paths escaping the disk root.
	ErrInvalidPath = errors.New("invalid media path")
	// ErrUnknownDisk is returned when a media row names a disk that is not configured.
	ErrUnknownDisk = errors.New("unknown disk")
)

// Disk is a flat object store addressed by slash separated paths.
type Disk interface {
	Name() string
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, paths ...string) error
}
