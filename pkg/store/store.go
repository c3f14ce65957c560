package store

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by Open
const (
	BackendFile = "file"
	BackendS3   = "s3"
)

// BlobStore reads and writes whole documents addressed by a slash-separated key.
// Get returns an *errdefs.NotFoundError when the key does not exist.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error

	// Location returns a human readable address for key, used in logs and reports
	Location(key string) string
}

// Options selects and configures a backend
type Options struct {
	Backend string
	// Root is the directory used by the file backend
	Root string
	S3   S3Config
}

// Open returns the BlobStore selected by opts.Backend, defaulting to the file backend
func Open(opts Options) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileStore(opts.Root), nil
	case BackendS3:
		return NewS3Store(opts.S3)
	default:
		return nil, fmt.Errorf("unsupported store backend %q (supported: %s, %s)", opts.Backend, BackendFile, BackendS3)
	}
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("key is required")
	}
	return key, nil
}
