// Package blob is the durable location transcoded photos are written to.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for names that are empty or would escape the
// store's directory.
var ErrInvalidName = errors.New("invalid blob name")

// Store writes named blobs. Names are generated by the caller from a
// collision-negligible random namespace and are never reused.
type Store interface {
	Write(ctx context.Context, name string, data []byte) error
}

// FileStore is a Store backed by a single flat directory on local disk.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating the directory if
// it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob.NewFileStore: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory blobs are written to.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the on-disk path for name.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Write stores data under name. The write is atomic: data goes to a temp
// file in the same directory which is renamed into place, so a reader never
// sees a partial image and a failed write leaves nothing behind.
func (s *FileStore) Write(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return fmt.Errorf("blob.FileStore.Write: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("blob.FileStore.Write: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("blob.FileStore.Write: create temp: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("blob.FileStore.Write: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("blob.FileStore.Write: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("blob.FileStore.Write: close: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("blob.FileStore.Write: chmod: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path(name)); err != nil {
		return fmt.Errorf("blob.FileStore.Write: rename: %w", err)
	}

	success = true
	return nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
