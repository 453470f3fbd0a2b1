// Package cache provides the process-wide named caches for catalog
// snapshots and reference collections. Entries have no expiry; they live
// until an explicit invalidation or process restart, and are always
// replaced wholesale.
package cache

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Well-known cache entry names. Writers through the catalog client must
// invalidate at minimum the two snapshot entries.
const (
	AllListings      = "all-catalog-records"
	FeaturedListings = "featured-catalog-records"
	Cities           = "cities"
	Categories       = "categories"
)

// AgentStats returns the cache name for one agent's derived statistics
func AgentStats(agentID uint) string {
	return "agent-stats:" + strconv.FormatUint(uint64(agentID), 10)
}

// Cache is a named read-through cache with single-flight loads
type Cache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
	group   singleflight.Group
}

// New creates an empty cache
func New() *Cache {
	return &Cache{
		entries: make(map[string]interface{}),
	}
}

// GetOrLoad returns the cached value for name, or invokes loader, stores
// the result, and returns it. Concurrent misses on the same name share a
// single loader invocation. A failed load leaves no entry behind and the
// loader's error is returned unchanged.
func (c *Cache) GetOrLoad(name string, loader func() (interface{}, error)) (interface{}, error) {
	c.mu.RLock()
	value, ok := c.entries[name]
	c.mu.RUnlock()
	if ok {
		return value, nil
	}

	value, err, _ := c.group.Do(name, func() (interface{}, error) {
		// Another caller may have completed the load between the miss
		// and this flight starting
		c.mu.RLock()
		existing, ok := c.entries[name]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}

		loaded, err := loader()
		if err != nil {
			return nil, err
		}

		// The result is stored even if an invalidation raced the load;
		// it is then subject to the next invalidation
		c.mu.Lock()
		c.entries[name] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Get returns the cached value without loading
func (c *Cache) Get(name string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[name]
	return value, ok
}

// Invalidate removes one entry. Safe to call concurrently with an
// in-flight load for the same name.
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// InvalidateAll removes every entry
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]interface{})
}

// Len returns the number of populated entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
