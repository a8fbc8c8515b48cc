package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStore keeps uploaded files on disk under a generated path and hands
// back the relative path as the retrievable reference.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes src into the store and returns the storage path. The original
// filename only contributes its extension; the key itself is random.
func (s *LocalStore) Save(prefix, filename string, src io.Reader) (string, error) {
	key := uuid.NewString() + filepath.Ext(filename)
	rel := filepath.Join(prefix, key)

	full := filepath.Join(s.dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	return rel, nil
}

func (s *LocalStore) Delete(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Open returns a reader for a previously stored path.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, path))
}
