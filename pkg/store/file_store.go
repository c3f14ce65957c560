package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

// FileStore keeps documents as files below a root directory
type FileStore struct {
	root string
}

var _ BlobStore = (*FileStore)(nil)

// NewFileStore creates a store rooted at root; an empty root means the working directory
func NewFileStore(root string) *FileStore {
	if root == "" {
		root = "."
	}
	return &FileStore{root: filepath.Clean(root)}
}

// Get reads key
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &errdefs.NotFoundError{Path: s.Location(key)}
		}
		return nil, &errdefs.StoreError{Op: "read", Path: s.Location(key), Err: err}
	}
	return data, nil
}

// Put atomically writes key, keeping the permissions of an existing file
func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &errdefs.StoreError{Op: "write", Path: s.Location(key), Err: err}
	}
	if err := utils.WriteFileAtomic(path, data, utils.FileMode(path, 0o644)); err != nil {
		return &errdefs.StoreError{Op: "write", Path: s.Location(key), Err: err}
	}
	return nil
}

// Location returns the file path of key
func (s *FileStore) Location(key string) string {
	return s.path(key)
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}
