package versionconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dpf-ci/dpf-version/pkg/store"
)

// ErrAlreadySaved is returned when Save is called twice without a Load in between
var ErrAlreadySaved = errors.New("version config already saved in this run")

// Store loads the version config once at the start of a run and writes it back once at the end.
type Store struct {
	blobs  store.BlobStore
	key    string
	logger *logrus.Logger
	saved  bool
}

// NewStore creates a Store for the document at key in blobs
func NewStore(blobs store.BlobStore, key string, logger *logrus.Logger) *Store {
	if key == "" {
		key = DefaultPath
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{blobs: blobs, key: key, logger: logger}
}

// Location returns where the config lives
func (s *Store) Location() string {
	return s.blobs.Location(s.key)
}

// Key returns the store key of the config document
func (s *Store) Key() string {
	return s.key
}

// Load reads and parses the config and starts a new run. The returned error keeps its errdefs kind.
func (s *Store) Load(ctx context.Context) (*VersionConfig, error) {
	s.saved = false
	data, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load version config: %w", err)
	}
	cfg, err := Parse(s.Location(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to load version config: %w", err)
	}
	s.logger.Debugf("Loaded version config from %s (current: %s)", s.Location(), cfg.DPFVersions.Current)
	return cfg, nil
}

// Save writes cfg back. It may only be called once per Load.
func (s *Store) Save(ctx context.Context, cfg *VersionConfig) error {
	if s.saved {
		return ErrAlreadySaved
	}
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to save version config: %w", err)
	}
	s.saved = true
	s.logger.Infof("Saved version config to %s (current: %s)", s.Location(), cfg.DPFVersions.Current)
	return nil
}
