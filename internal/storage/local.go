package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/qrtist/backend/internal/models"
)

// localStorage keeps blobs on the local filesystem grouped by category directories
type localStorage struct {
	basePath   string
	removeFile func(name string) error
}

// newLocalStorage creates a new localStorage instance
func newLocalStorage(basePath string) *localStorage {
	return &localStorage{
		basePath:   basePath,
		removeFile: os.Remove,
	}
}

// generatePath generates the full file path based on category and name
func (s *localStorage) generatePath(category, name string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(category), name)
}

// writeNew streams reader into category/name.
//
// Data goes to a temp file which is fsynced and then hard linked to the final name, so a
// reader never observes a partial file and an existing name is never replaced. Returns
// ErrConflict if the name is taken.
func (s *localStorage) writeNew(category, name string, reader io.Reader) (int64, error) {
	path := s.generatePath(category, name)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, reader)
	if err != nil {
		tmp.Close()
		return size, fmt.Errorf("failed to write file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return size, fmt.Errorf("failed to sync file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return size, fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return size, fmt.Errorf("%w: %s already exists", models.ErrConflict, name)
		}
		return size, fmt.Errorf("failed to publish file: %w", err)
	}

	if err := syncDir(dir); err != nil {
		return size, err
	}

	return size, nil
}

// open opens a stored file for reading
func (s *localStorage) open(category, name string) (*os.File, error) {
	f, err := os.Open(s.generatePath(category, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// remove deletes a stored file
func (s *localStorage) remove(category, name string) error {
	err := s.removeFile(s.generatePath(category, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", models.ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// syncDir flushes directory entries so a new link survives a crash
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory: %w", err)
	}
	defer d.Close()

	// Some platforms do not support fsync on directories
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return fmt.Errorf("failed to sync directory: %w", err)
	}
	return nil
}
