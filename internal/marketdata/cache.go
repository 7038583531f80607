package marketdata

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value      V
	insertedAt time.Time
}

// TTLCache memoizes values for a fixed time-to-live. Entries are overwritten
// in place on recompute; there is no invalidation API.
type TTLCache[V any] struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]cacheEntry[V]
}

// NewTTLCache builds a cache with the given TTL. now defaults to time.Now
// and exists so tests can drive expiry.
func NewTTLCache[V any](ttl time.Duration, now func() time.Time) *TTLCache[V] {
	if now == nil {
		now = time.Now
	}
	return &TTLCache[V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry[V]),
	}
}

// Get returns the cached value for key when it is still fresh
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.insertedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Put stores value under key, resetting its age
func (c *TTLCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: value, insertedAt: c.now()}
}

// Len returns the number of entries, fresh or stale
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
