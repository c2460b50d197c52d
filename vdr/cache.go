package vdr

import (
	"sync"
	"time"

	"github.com/wow-sven/nuwa-sub012/identity"
)

// documentCache is a capacity- and TTL-bounded cache of resolved DID
// Documents. At capacity it evicts the insertion-order-oldest entry. The
// cache is purely a performance optimization: entries expire on their own
// TTL so a revoked key cannot be honored past the freshness window.
type documentCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	order    []string
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

type cacheEntry struct {
	doc       *identity.Document
	expiresAt time.Time
}

func newDocumentCache(capacity int, ttl time.Duration, now func() time.Time) *documentCache {
	if now == nil {
		now = time.Now
	}
	return &documentCache{
		entries:  make(map[string]cacheEntry),
		capacity: capacity,
		ttl:      ttl,
		now:      now,
	}
}

func (c *documentCache) get(did string) (*identity.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[did]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, did)
		return nil, false
	}
	return entry.doc, true
}

func (c *documentCache) put(did string, doc *identity.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[did]; !ok {
		for len(c.entries) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			if _, live := c.entries[oldest]; live {
				delete(c.entries, oldest)
				break
			}
		}
		c.order = append(c.order, did)
	}

	c.entries[did] = cacheEntry{doc: doc, expiresAt: c.now().Add(c.ttl)}
}

func (c *documentCache) invalidate(did string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[did]; !ok {
		return
	}
	delete(c.entries, did)

	// Drop the queue slot as well, or a later put of the same DID would
	// leave a stale front slot that evicts the fresh entry early.
	for i, key := range c.order {
		if key == did {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *documentCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
