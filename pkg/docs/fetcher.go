package docs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/dpf-ci/dpf-version/pkg/utils"
)

const (
	// DefaultURL is the reference deployment guide for DPF with OVN-Kubernetes and HBN services
	DefaultURL = "https://docs.nvidia.com/networking/display/public/sol/rdg+for+dpf+with+ovn-kubernetes+and+hbn+services"

	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = 24 * time.Hour

	defaultMemoryEntries = 16
	maxBodyBytes         = 32 << 20
)

// Origin tells where fetched content came from
type Origin string

const (
	OriginMemory  Origin = "memory"
	OriginCache   Origin = "cache"
	OriginNetwork Origin = "network"
	// OriginStale is an expired cache entry used because the network fetch failed
	OriginStale Origin = "stale-cache"
)

// Options configure a Fetcher
type Options struct {
	CacheDir      string
	CacheTTL      time.Duration
	Timeout       time.Duration
	MemoryEntries int
	HTTPClient    *http.Client
}

// DefaultCacheDir returns ~/.cache/dpf-ci, or a temp directory when the home directory is unknown
func DefaultCacheDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".cache", "dpf-ci")
	}
	return filepath.Join(os.TempDir(), "dpf-ci")
}

// Fetcher downloads documentation pages, caching them in memory and on disk.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	ttl      time.Duration
	memory   *lru.Cache[string, []byte]
	logger   *logrus.Logger
	now      func() time.Time
}

// NewFetcher creates a fetcher; zero options fall back to the defaults
func NewFetcher(logger *logrus.Logger, opts Options) (*Fetcher, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.CacheDir == "" {
		opts.CacheDir = DefaultCacheDir()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = defaultMemoryEntries
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	memory, err := lru.New[string, []byte](opts.MemoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}
	return &Fetcher{
		client:   client,
		cacheDir: opts.CacheDir,
		ttl:      opts.CacheTTL,
		memory:   memory,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// CachePath returns the on-disk cache file for url
func (f *Fetcher) CachePath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, "rdg-"+hex.EncodeToString(sum[:6])+".html")
}

// Fetch returns the content of url. With useCache, a fresh cache entry is returned
// without touching the network. When the network fetch fails, any cached copy is
// returned regardless of its age.
func (f *Fetcher) Fetch(ctx context.Context, url string, useCache bool) ([]byte, Origin, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultURL
	}
	cachePath := f.CachePath(url)

	if useCache {
		if data, ok := f.memory.Get(url); ok {
			return data, OriginMemory, nil
		}
		if info, err := os.Stat(cachePath); err == nil {
			age := f.now().Sub(info.ModTime())
			if age < f.ttl {
				data, err := os.ReadFile(cachePath)
				if err == nil {
					f.logger.Infof("Using cached documentation (age: %.1f hours)", age.Hours())
					f.memory.Add(url, data)
					return data, OriginCache, nil
				}
				f.logger.Warnf("Failed to read documentation cache %s: %v", cachePath, err)
			}
		}
	}

	f.logger.Infof("Fetching documentation from: %s", url)
	data, fetchErr := f.download(ctx, url)
	if fetchErr == nil {
		f.memory.Add(url, data)
		if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
			f.logger.Warnf("Failed to create documentation cache dir %s: %v", f.cacheDir, err)
		} else if err := utils.WriteFileAtomic(cachePath, data, 0o644); err != nil {
			f.logger.Warnf("Failed to cache documentation at %s: %v", cachePath, err)
		}
		return data, OriginNetwork, nil
	}

	f.logger.Errorf("Error fetching documentation: %v", fetchErr)
	if data, err := os.ReadFile(cachePath); err == nil {
		f.logger.Warnf("Falling back to cached version at %s", cachePath)
		return data, OriginStale, nil
	}
	return nil, "", fmt.Errorf("failed to fetch documentation from %s: %w", url, fetchErr)
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d for %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}
