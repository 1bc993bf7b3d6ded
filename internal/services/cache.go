package services

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const cacheCleanupInterval = time.Minute

// documentCache holds fetched KML payloads keyed by location.
type documentCache struct {
	entries *cache.Cache
	ttl     time.Duration
}

func newDocumentCache(ttl time.Duration) *documentCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &documentCache{
		entries: cache.New(ttl, cacheCleanupInterval),
		ttl:     ttl,
	}
}

func (c *documentCache) get(location string) ([]byte, bool) {
	value, found := c.entries.Get(location)
	if !found {
		return nil, false
	}
	data, ok := value.([]byte)
	return data, ok
}

// put stores data until expiry elapses; a non-positive expiry uses the default TTL.
func (c *documentCache) put(location string, data []byte, expiry time.Duration) {
	if expiry <= 0 {
		expiry = cache.DefaultExpiration
	}
	c.entries.Set(location, data, expiry)
}

func (c *documentCache) invalidate(location string) {
	c.entries.Delete(location)
}

func (c *documentCache) invalidateAll() {
	c.entries.Flush()
}

func (c *documentCache) len() int {
	return c.entries.ItemCount()
}
