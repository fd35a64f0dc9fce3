package storage

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/qrtist/backend/internal/models"
)

const uploadCategory = "uploads"

// UploadStore keeps original files uploaded for pdf and image QR codes
type UploadStore struct {
	local *localStorage
}

// NewUploadStore creates an upload store rooted at basePath
func NewUploadStore(basePath string) *UploadStore {
	return &UploadStore{
		local: newLocalStorage(basePath),
	}
}

// Save streams reader into a new file for the given content type and returns its
// reference (for example "uploads/pdf/<uuid>.pdf") and size.
//
// At most maxSize bytes are accepted. A larger stream is discarded and
// ErrFileTooLarge is returned, even if the caller declared a smaller size.
func (s *UploadStore) Save(contentType models.ContentType, fileName string, reader io.Reader, maxSize int64) (string, int64, error) {
	category := path.Join(uploadCategory, string(contentType))
	name := GenerateFileName(strings.ToLower(filepath.Ext(fileName)))

	limited := io.LimitReader(reader, maxSize+1)
	size, err := s.local.writeNew(category, name, limited)
	if err != nil {
		return "", 0, fmt.Errorf("failed to save upload: %w", err)
	}

	ref := path.Join(category, name)
	if size > maxSize {
		if err := s.local.remove(category, name); err != nil {
			return "", 0, fmt.Errorf("failed to remove oversized upload: %w", err)
		}
		return "", 0, fmt.Errorf("%w: file size should not exceed %d bytes", models.ErrFileTooLarge, maxSize)
	}

	return ref, size, nil
}

// Delete removes a previously saved upload by reference
func (s *UploadStore) Delete(ref string) error {
	category, name := path.Split(ref)
	if !strings.HasPrefix(category, uploadCategory+"/") || strings.Contains(ref, "..") || name == "" {
		return fmt.Errorf("%w: upload %q", models.ErrNotFound, ref)
	}
	return s.local.remove(strings.TrimSuffix(category, "/"), name)
}
