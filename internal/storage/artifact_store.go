// Package storage persists rendered QR artifacts and uploaded source files on disk
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/qrtist/backend/internal/models"
)

const artifactCategory = "qr"

// putAttempts bounds key regeneration when a freshly generated key already exists
const putAttempts = 2

var artifactRefPattern = regexp.MustCompile(`^qr_[0-9a-f]{32}\.png$`)

// ArtifactStore keeps rendered images under unique keys
type ArtifactStore struct {
	local *localStorage
}

// NewArtifactStore creates an artifact store rooted at basePath
func NewArtifactStore(basePath string) *ArtifactStore {
	return &ArtifactStore{
		local: newLocalStorage(basePath),
	}
}

// IsArtifactRef reports whether ref has the shape of an artifact key
func IsArtifactRef(ref string) bool {
	return artifactRefPattern.MatchString(ref)
}

// Put stores data under a new key and returns the key.
// The blob is durable once Put returns, existing keys are never overwritten.
func (s *ArtifactStore) Put(data []byte) (string, error) {
	var lastErr error
	for range putAttempts {
		ref := GenerateArtifactKey()
		_, err := s.local.writeNew(artifactCategory, ref, bytes.NewReader(data))
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return "", fmt.Errorf("failed to store artifact: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("failed to store artifact: %w", lastErr)
}

// Get returns the blob stored under ref or ErrNotFound
func (s *ArtifactStore) Get(ref string) ([]byte, error) {
	if !IsArtifactRef(ref) {
		return nil, fmt.Errorf("%w: artifact %q", models.ErrNotFound, ref)
	}

	f, err := s.local.open(artifactCategory, ref)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// List returns the keys of artifacts last written before olderThan in name order
func (s *ArtifactStore) List(olderThan time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.local.generatePath(artifactCategory, ""))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	var refs []string
	for _, entry := range entries {
		if entry.IsDir() || !IsArtifactRef(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat artifact: %w", err)
		}
		if info.ModTime().Before(olderThan) {
			refs = append(refs, entry.Name())
		}
	}

	return refs, nil
}

// Delete removes the blob stored under ref
func (s *ArtifactStore) Delete(ref string) error {
	if !IsArtifactRef(ref) {
		return fmt.Errorf("%w: artifact %q", models.ErrNotFound, ref)
	}
	return s.local.remove(artifactCategory, ref)
}
