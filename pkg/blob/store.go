// Package blob stores uploaded binary objects (listing images, user ID
// documents) under opaque keys on local disk.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("blob not found")

// Store is a path-keyed binary object store.
type Store interface {
	Save(key string, data []byte) error
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
	Exists(key string) bool
}

// DiskStore keeps blobs as files under a base directory. Keys may contain
// forward slashes to namespace objects (e.g. "listings/<uuid>.jpg").
type DiskStore struct {
	basePath string
}

func NewDiskStore(basePath string) (*DiskStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &DiskStore{basePath: basePath}, nil
}

// resolve maps a key to a path under basePath, rejecting traversal.
func (d *DiskStore) resolve(key string) (string, error) {
	cleaned := filepath.Clean("/" + key)
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key: %s", key)
	}
	return filepath.Join(d.basePath, cleaned), nil
}

func (d *DiskStore) Save(key string, data []byte) error {
	path, err := d.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create blob subdirectory: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func (d *DiskStore) Open(key string) (io.ReadCloser, error) {
	path, err := d.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return f, nil
}

func (d *DiskStore) Delete(key string) error {
	path, err := d.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

func (d *DiskStore) Exists(key string) bool {
	path, err := d.resolve(key)
	if err != nil {
		return false
	}

	_, err = os.Stat(path)
	return err == nil
}
