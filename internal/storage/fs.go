package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrKeyExists indicates a write was refused because the storage key is
// already taken. Keys are timestamp-prefixed, so this only happens when two
// same-named files are ingested within the same second.
var ErrKeyExists = errors.New("storage key already exists")

// FileStore is a filesystem-backed key/value byte store rooted at a single
// directory. Keys are flat file names; path separators are rejected so a key
// can never escape the root.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed and returns a store over it.
func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("file store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// Save writes the reader's bytes under the provided key. An existing key is
// never overwritten.
func (s *FileStore) Save(key string, r io.Reader) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyExists, key)
		}
		return fmt.Errorf("create asset %s: %w", key, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write asset %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close asset %s: %w", key, err)
	}

	return nil
}

// Exists reports whether the key resolves to a stored asset.
func (s *FileStore) Exists(key string) bool {
	path, err := s.keyPath(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Delete removes the asset stored under the key.
func (s *FileStore) Delete(key string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete asset %s: %w", key, err)
	}
	return nil
}

// Path returns the absolute filesystem location for the key. The file may or
// may not exist.
func (s *FileStore) Path(key string) string {
	path, err := s.keyPath(key)
	if err != nil {
		return ""
	}
	return path
}

func (s *FileStore) keyPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("file store: empty key")
	}
	if strings.ContainsAny(key, `/\`) || key != filepath.Base(key) {
		return "", fmt.Errorf("file store: invalid key %q", key)
	}
	return filepath.Join(s.root, key), nil
}
