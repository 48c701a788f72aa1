package vendors

import (
	"sync"
	"time"
)

type cacheEntry struct {
	data     []byte
	storedAt time.Time
}

// ResponseCache is a bounded TTL cache for raw provider responses. It is
// owned by the caller that constructs it, not by any strategy, so its
// lifetime and eviction policy stay explicit.
type ResponseCache struct {
	ttl        time.Duration
	maxEntries int
	mu         sync.Mutex
	entries    map[string]cacheEntry
	now        func() time.Time
}

func NewResponseCache(ttl time.Duration, maxEntries int) *ResponseCache {
	return &ResponseCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]cacheEntry),
		now:        time.Now,
	}
}

func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}

	return entry.data, true
}

func (c *ResponseCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[key] = cacheEntry{data: data, storedAt: c.now()}
}

func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResponseCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
