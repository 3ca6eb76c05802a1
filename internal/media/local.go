package media

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalDisk stores files below a directory.
type LocalDisk struct {
	root string
}

var _ Disk = (*LocalDisk)(nil)

// NewLocalDisk creates a LocalDisk rooted at root.
func NewLocalDisk(root string) *LocalDisk {
	return &LocalDisk{root: root}
}

// Name implements Disk.
func (d *LocalDisk) Name() string {
	return DiskLocal
}

func (d *LocalDisk) abs(p string) (string, error) {
	clean := path.Clean("/" + p)
	if clean == "/" || strings.Contains(p, "..") {
		return "", ErrInvalidPath
	}

	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

// Put implements Disk.
func (d *LocalDisk) Put(_ context.Context, p string, r io.Reader, _ int64, _ string) error {
	file, err := d.abs(p)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return err
	}

	f, err := os.Create(file) //nolint:gosec
	if err != nil {
		return err
	}

	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(file)

		return err
	}

	return f.Close()
}

// Open implements Disk.
func (d *LocalDisk) Open(_ context.Context, p string) (io.ReadCloser, error) {
	file, err := d.abs(p)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file) //nolint:gosec
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMediaNotFound
	}

	return f, err
}

// Delete implements Disk. Missing files are ignored.
func (d *LocalDisk) Delete(_ context.Context, paths ...string) error {
	for _, p := range paths {
		file, err := d.abs(p)
		if err != nil {
			return err
		}

		if err = os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}
