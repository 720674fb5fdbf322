package geocode

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "geocode_cache.json")
	cache, err := OpenCache(path, zap.NewNop())
	require.NoError(t, err)

	want := &Result{
		Lat: -32.39, Lon: 150.95,
		FormattedAddress: "Bayswater NSW, Australia",
		PlaceID:          "ChIJ123",
		Postcode:         "2333",
	}
	cache.Put("Bayswater, NSW, Australia", want)
	require.NoError(t, cache.Flush())

	reloaded, err := OpenCache(path, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Len())

	got, ok := reloaded.Get("Bayswater, NSW, Australia")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCacheKeyCanonicalization(t *testing.T) {
	t.Parallel()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "c.json"), zap.NewNop())
	require.NoError(t, err)

	cache.Put("Bayswater, NSW", &Result{Lat: 1})
	_, ok := cache.Get("  bayswater, nsw  ")
	assert.True(t, ok, "lookups must ignore case and padding")
}

func TestCacheDistinguishesNoMatchFromUnknown(t *testing.T) {
	t.Parallel()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "c.json"), zap.NewNop())
	require.NoError(t, err)

	_, ok := cache.Get("never seen")
	assert.False(t, ok)

	cache.Put("unresolvable place", nil)
	r, ok := cache.Get("unresolvable place")
	assert.True(t, ok)
	assert.Nil(t, r)
}

func TestCacheFlushSkipsWhenClean(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.json")
	cache, err := OpenCache(path, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, cache.Flush())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "a clean cache must not touch disk")
}

func TestCacheFileIsHumanReadable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.json")
	cache, err := OpenCache(path, zap.NewNop())
	require.NoError(t, err)
	cache.Put("q", &Result{Lat: 1, Lon: 2})
	require.NoError(t, cache.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n  "), "cache file must be indented")

	var entries map[string]cacheEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	for _, e := range entries {
		assert.Equal(t, "q", e.Query, "entries must carry the original query")
		assert.False(t, e.CachedAt.IsZero())
	}
}

func TestCacheCorruptFileIsAnError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenCache(path, zap.NewNop())
	require.Error(t, err)
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "c.json"), zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q := string(rune('a'+n)) + ", Australia"
				cache.Put(q, &Result{Lat: float64(j)})
				cache.Get(q)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, cache.Len())
}
