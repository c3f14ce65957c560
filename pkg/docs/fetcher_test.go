package docs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	f, err := NewFetcher(logger, Options{CacheDir: t.TempDir(), Timeout: 5 * time.Second})
	require.NoError(t, err)
	return f
}

func TestFetch_CachesResponses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html>DPF v25.4.0</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	ctx := context.Background()

	data, origin, err := f.Fetch(ctx, srv.URL, true)
	require.NoError(t, err)
	assert.Equal(t, OriginNetwork, origin)
	assert.Equal(t, "<html>DPF v25.4.0</html>", string(data))
	assert.FileExists(t, f.CachePath(srv.URL))

	_, origin, err = f.Fetch(ctx, srv.URL, true)
	require.NoError(t, err)
	assert.Equal(t, OriginMemory, origin)
	assert.Equal(t, int32(1), hits.Load())

	// A new fetcher over the same cache dir reads the disk cache
	second, err := NewFetcher(f.logger, Options{CacheDir: f.cacheDir})
	require.NoError(t, err)
	_, origin, err = second.Fetch(ctx, srv.URL, true)
	require.NoError(t, err)
	assert.Equal(t, OriginCache, origin)
	assert.Equal(t, int32(1), hits.Load())

	// Bypassing the cache always hits the network
	_, origin, err = f.Fetch(ctx, srv.URL, false)
	require.NoError(t, err)
	assert.Equal(t, OriginNetwork, origin)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetch_ExpiredCacheRefetches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	require.NoError(t, os.WriteFile(f.CachePath(srv.URL), []byte("old"), 0o644))
	old := time.Now().Add(-25 * time.Hour)
	require.NoError(t, os.Chtimes(f.CachePath(srv.URL), old, old))

	data, origin, err := f.Fetch(context.Background(), srv.URL, true)
	require.NoError(t, err)
	assert.Equal(t, OriginNetwork, origin)
	assert.Equal(t, "fresh", string(data))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_FallsBackToStaleCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, _, err := f.Fetch(context.Background(), srv.URL, true)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(f.CachePath(srv.URL), []byte("stale"), 0o644))
	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(f.CachePath(srv.URL), old, old))

	data, origin, err := f.Fetch(context.Background(), srv.URL, true)
	require.NoError(t, err)
	assert.Equal(t, OriginStale, origin)
	assert.Equal(t, "stale", string(data))
}

func TestCachePath_PerURL(t *testing.T) {
	f := newTestFetcher(t)
	assert.NotEqual(t, f.CachePath("https://a"), f.CachePath("https://b"))
	assert.Equal(t, f.CachePath(DefaultURL), f.CachePath(DefaultURL))
}
