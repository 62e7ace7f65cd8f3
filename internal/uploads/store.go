// Package uploads is the blob store for file attachments. Blobs live on
// the local file system under a single directory, keyed by a generated
// filename; the node/file association is kept in the graph, not here.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/apperr"
)

// MaxBlobBytes caps the size of a single stored blob.
const MaxBlobBytes = 50 << 20 // 50 MB

// allowedExtensions is the accept-list for uploaded files, keyed without
// the leading dot.
var allowedExtensions = map[string]struct{}{
	"txt": {}, "pdf": {}, "png": {}, "jpg": {}, "jpeg": {}, "gif": {},
	"md": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "csv": {},
	"json": {}, "xml": {},
}

// Store writes and serves attachment blobs under a single root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("uploads: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create root: %w", err)
	}
	return &Store{root: abs}, nil
}

// SanitizeFilename reduces a user-supplied filename to a plain base name
// safe for display and storage metadata. Path separators and traversal are
// stripped rather than rejected since the name is informational only.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// extensionOf returns the lowercased extension of name without the dot, or
// "" when there is none.
func extensionOf(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return strings.ToLower(ext)
}

// Save streams src into a freshly keyed blob. The stored name is a UUID
// with the original extension so stored blobs never collide and never
// reuse attacker-controlled names. Rejects disallowed extensions and blobs
// over MaxBlobBytes with InvalidInput.
func (s *Store) Save(src io.Reader, originalFilename string) (id, storedName string, err error) {
	clean := SanitizeFilename(originalFilename)
	if clean == "" {
		return "", "", fmt.Errorf("uploads: empty filename: %w", apperr.ErrInvalidInput)
	}
	ext := extensionOf(clean)
	if _, ok := allowedExtensions[ext]; !ok {
		return "", "", fmt.Errorf("uploads: extension %q not allowed: %w", ext, apperr.ErrInvalidInput)
	}

	id = uuid.NewString()
	storedName = id + "." + ext
	abs := filepath.Join(s.root, storedName)

	tmp, err := os.CreateTemp(s.root, ".othala-tmp-*")
	if err != nil {
		return "", "", fmt.Errorf("uploads: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	// Read one byte past the cap so an exactly-at-limit blob still passes.
	written, err := io.Copy(tmp, io.LimitReader(src, MaxBlobBytes+1))
	if err != nil {
		return "", "", fmt.Errorf("uploads: write temp: %w", err)
	}
	if written > MaxBlobBytes {
		return "", "", fmt.Errorf("uploads: blob exceeds %d bytes: %w", MaxBlobBytes, apperr.ErrInvalidInput)
	}
	if err := tmp.Sync(); err != nil {
		return "", "", fmt.Errorf("uploads: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("uploads: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", "", fmt.Errorf("uploads: rename: %w", err)
	}
	success = true
	return id, storedName, nil
}

// Path validates that storedName is a plain name and returns the absolute
// path of the blob, or NotFound when it does not exist.
func (s *Store) Path(storedName string) (string, error) {
	if storedName == "" {
		return "", fmt.Errorf("uploads: empty filename: %w", apperr.ErrInvalidInput)
	}
	cleaned := filepath.Clean(storedName)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("uploads: invalid filename %q: %w", storedName, apperr.ErrInvalidInput)
	}
	abs := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("uploads: path escapes store root: %w", apperr.ErrInvalidInput)
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("uploads: %s: %w", storedName, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("uploads: stat %s: %w", storedName, err)
	}
	return abs, nil
}

// Remove deletes a stored blob. Missing blobs are not an error so cleanup
// after a node delete is idempotent.
func (s *Store) Remove(storedName string) error {
	abs, err := s.Path(storedName)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("uploads: remove %s: %w", storedName, err)
	}
	return nil
}
