package market

import (
	"sync"
	"time"

	"github.com/bonkai/bonkai/internal/models"
)

// CacheKey is the cache key for the token snapshot.
const CacheKey = "bonk-data"

type cacheEntry struct {
	stats *models.TokenStats
	stamp time.Time
}

// Cache is an in-memory snapshot cache. Entries are never evicted; the key
// space is tiny and fixed. Writes are stamped with the request start time
// and a stale in-flight response cannot overwrite a newer entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the entry for key if it is younger than ttl.
func (c *Cache) Get(key string, ttl time.Duration) (*models.TokenStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.stamp) >= ttl {
		return nil, false
	}
	return e.stats, true
}

// GetAny returns the entry for key regardless of age. Used for
// serve-stale-on-error.
func (c *Cache) GetAny(key string) (*models.TokenStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.stats, true
}

// Put stores stats under key stamped with the request start time. The write
// is rejected when a newer entry is already present, so a slow response
// cannot clobber the result of a request issued after it. Reports whether
// the write was committed.
func (c *Cache) Put(key string, stats *models.TokenStats, stamp time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && !stamp.After(e.stamp) {
		return false
	}
	c.entries[key] = cacheEntry{stats: stats, stamp: stamp}
	return true
}
