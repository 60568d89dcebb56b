package tiling

import (
	"sync"

	"k8s.io/klog/v2"
)

// DefaultCacheEntries is the capacity NewCache uses for a non-positive size.
const DefaultCacheEntries = 1024

// CacheStats reports cache usage.
type CacheStats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache memoizes finished records by request and profile. Records are
// values, so a hit hands out an independent copy. Oldest entries are
// evicted first once capacity is reached.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]Record
	order    []string
	capacity int

	// Statistics
	hits      uint64
	misses    uint64
	evictions uint64
}

// NewCache creates a cache holding up to capacity records.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheEntries
	}
	return &Cache{
		entries:  make(map[string]Record, capacity),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Get returns the record stored under key.
func (c *Cache) Get(key string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.entries[key]
	if !ok {
		c.misses++
		return Record{}, false
	}
	c.hits++
	klog.V(3).InfoS("tiling cache hit", "key", key)
	return rec, true
}

// Put stores rec under key, evicting the oldest entry when full.
func (c *Cache) Put(key string, rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = rec
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.evictions++
		klog.V(3).InfoS("tiling cache eviction", "key", oldest)
	}
	c.entries[key] = rec
	c.order = append(c.order, key)
}

// Len returns the number of stored records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Statistics are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Record, c.capacity)
	c.order = c.order[:0]
}

// Stats returns usage statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
