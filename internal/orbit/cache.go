package orbit

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/litescript/ls-orbits/internal/tle"
)

// DefaultCacheSize bounds the number of compiled handles kept around.
const DefaultCacheSize = 2048

// HandleCache memoizes compiled handles by element-set content, so a
// reloaded catalog reuses the handles of unchanged records.
type HandleCache struct {
	cache *expirable.LRU[string, *Handle]
}

// NewHandleCache returns a cache holding up to size handles for at most ttl.
// A non-positive ttl disables expiry.
func NewHandleCache(size int, ttl time.Duration) *HandleCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &HandleCache{
		cache: expirable.NewLRU[string, *Handle](size, nil, ttl),
	}
}

// Get returns the handle for rec, compiling it on a miss. Compile failures
// are not cached.
func (c *HandleCache) Get(rec tle.Record) (*Handle, error) {
	key := rec.Key()
	if h, ok := c.cache.Get(key); ok {
		if h.rec.Name == rec.Name {
			return h, nil
		}
		// Same elements under another name: share the model, keep the name.
		clone := *h
		clone.rec = rec
		return &clone, nil
	}

	h, err := Compile(rec)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, h)
	return h, nil
}

// Len returns the number of cached handles.
func (c *HandleCache) Len() int { return c.cache.Len() }

// Purge drops every cached handle.
func (c *HandleCache) Purge() { c.cache.Purge() }
