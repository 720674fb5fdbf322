package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

// cacheEntry stores one resolved query. A nil Result is a cached no-match,
// which is as valuable as a hit: it stops repeat lookups of addresses the
// provider cannot resolve.
type cacheEntry struct {
	Query    string    `json:"query"`
	Result   *Result   `json:"result"`
	CachedAt time.Time `json:"cached_at"`
}

// Cache is a persistent query cache backed by a single JSON file. It is
// loaded once at startup, read and written in memory during the run, and
// flushed at shutdown. The file is indented so cache diffs stay reviewable.
type Cache struct {
	path string
	log  *zap.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
	dirty   bool
}

// OpenCache loads the cache file at path, creating an empty cache when the
// file does not exist yet. A corrupt file is an error, not a silent reset.
func OpenCache(path string, log *zap.Logger) (*Cache, error) {
	c := &Cache{
		path:    path,
		log:     log,
		entries: make(map[string]cacheEntry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("geocode: read cache %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("geocode: parse cache %s: %w", path, err)
	}
	log.Info("geocode cache loaded", zap.String("path", path), zap.Int("entries", len(c.entries)))
	return c, nil
}

// Get returns the cached result for query. ok distinguishes "never looked
// up" (false) from a cached no-match (true with a nil result).
func (c *Cache) Get(query string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey(query)]
	if !ok {
		return nil, false
	}
	return e.Result, true
}

// Put stores a result (or a no-match) for query.
func (c *Cache) Put(query string, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(query)] = cacheEntry{
		Query:    query,
		Result:   r,
		CachedAt: time.Now().UTC(),
	}
	c.dirty = true
}

// Len returns the number of cached queries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush writes the cache back to disk if anything changed since the last
// flush. The write goes through a temp file and rename so a crash cannot
// truncate the existing cache.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("geocode: encode cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("geocode: cache dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("geocode: write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("geocode: replace cache: %w", err)
	}

	c.dirty = false
	c.log.Info("geocode cache flushed", zap.String("path", c.path), zap.Int("entries", len(c.entries)))
	return nil
}

// cacheKey hashes the canonical form of a query so key stability does not
// depend on caller casing or padding.
func cacheKey(query string) string {
	canonical := strings.ToLower(strings.TrimSpace(query))
	return fmt.Sprintf("%016x", xxh3.HashString(canonical))
}

// CachedGeocoder decorates a Geocoder with read-through caching. No-matches
// are cached too. Provider errors are not cached; the next run retries them.
type CachedGeocoder struct {
	inner Geocoder
	cache *Cache
}

func NewCachedGeocoder(inner Geocoder, cache *Cache) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, cache: cache}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	if r, ok := g.cache.Get(query); ok {
		return r, nil
	}
	r, err := g.inner.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	g.cache.Put(query, r)
	return r, nil
}
