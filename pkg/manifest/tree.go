package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dpf-ci/dpf-version/pkg/errdefs"
	"github.com/dpf-ci/dpf-version/pkg/utils"
)

// Tree is the accessor for a manifest tree. Paths are slash-separated and relative to the root.
type Tree interface {
	// Root returns a human readable location of the tree
	Root() string

	// Documents lists every YAML document file in the tree in lexical order
	Documents() ([]string, error)

	// Exists reports whether a regular file exists at the relative path
	Exists(rel string) bool

	// Read returns the raw content of a file
	Read(rel string) ([]byte, error)

	// Write replaces the content of a file
	Write(rel string, data []byte) error
}

// DirTree is a Tree backed by a directory on the local filesystem.
type DirTree struct {
	root string
}

var _ Tree = (*DirTree)(nil)

// NewDirTree creates a tree rooted at dir
func NewDirTree(dir string) *DirTree {
	return &DirTree{root: filepath.Clean(dir)}
}

// Root returns the directory the tree is rooted at
func (t *DirTree) Root() string {
	return t.root
}

// Documents walks the tree and returns all YAML files, skipping hidden directories such as .git
func (t *DirTree) Documents() ([]string, error) {
	var docs []string
	err := filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != t.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !utils.IsManifestFile(path) {
			return nil
		}
		rel, err := filepath.Rel(t.root, path)
		if err != nil {
			return err
		}
		docs = append(docs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &errdefs.StoreError{Op: "walk", Path: t.root, Err: err}
	}
	sort.Strings(docs)
	return docs, nil
}

// Exists reports whether rel names a regular file
func (t *DirTree) Exists(rel string) bool {
	info, err := os.Stat(t.abs(rel))
	return err == nil && info.Mode().IsRegular()
}

// Read returns the content of rel
func (t *DirTree) Read(rel string) ([]byte, error) {
	data, err := os.ReadFile(t.abs(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &errdefs.NotFoundError{Path: rel}
		}
		return nil, &errdefs.StoreError{Op: "read", Path: rel, Err: err}
	}
	return data, nil
}

// Write atomically replaces rel, keeping the permissions of an existing file
func (t *DirTree) Write(rel string, data []byte) error {
	path := t.abs(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &errdefs.StoreError{Op: "write", Path: rel, Err: err}
	}
	if err := utils.WriteFileAtomic(path, data, utils.FileMode(path, 0o644)); err != nil {
		return &errdefs.StoreError{Op: "write", Path: rel, Err: err}
	}
	return nil
}

func (t *DirTree) abs(rel string) string {
	return filepath.Join(t.root, filepath.FromSlash(rel))
}
