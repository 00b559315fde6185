package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// MemoryCache implements an L1 in-memory cache bounded by total byte size.
// Entries are evicted in insertion order (FIFO); reads do not change the
// order. An entry larger than the capacity is never stored.
type MemoryCache struct {
	capacity int64 // Maximum size in bytes
	size     int64 // Running total of entry sizes

	// FIFO implementation: front is the newest entry
	items    map[string]*list.Element
	eviction *list.List

	mu sync.RWMutex

	stats CacheStats
}

// memoryCacheEntry represents an entry in the memory cache
type memoryCacheEntry struct {
	key   string
	value []byte
	size  int64
}

// NewMemoryCache creates a new memory cache with the specified capacity in
// bytes. A non-positive capacity selects DefaultMemoryCapacity.
func NewMemoryCache(capacity int64) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats: CacheStats{
			Level:    CacheLevelL1,
			Capacity: capacity,
		},
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	return elem.Value.(*memoryCacheEntry).value, true
}

// Put stores a value in the cache. A value larger than the capacity is
// skipped without touching the cache and without an error. Storing an existing
// key replaces it and makes it the newest entry.
func (c *MemoryCache) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valueSize := int64(len(value))
	if valueSize > c.capacity {
		c.stats.Rejected++
		return nil
	}

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}

	for c.size+valueSize > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}

	entry := &memoryCacheEntry{
		key:   key,
		value: value,
		size:  valueSize,
	}
	c.items[key] = c.eviction.PushFront(entry)
	c.size += valueSize

	return nil
}

// Delete removes an entry from the cache.
func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0

	return nil
}

// Size returns the current cache size in bytes.
func (c *MemoryCache) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.size
}

// Capacity returns the maximum cache size in bytes.
func (c *MemoryCache) Capacity() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.capacity
}

// Len returns the number of entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Contains checks if a key exists in the cache.
func (c *MemoryCache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.items[key]
	return ok
}

// Keys returns all keys from oldest to newest.
func (c *MemoryCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.items))
	for elem := c.eviction.Back(); elem != nil; elem = elem.Prev() {
		keys = append(keys, elem.Value.(*memoryCacheEntry).key)
	}
	return keys
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = c.size
	stats.ItemCount = int64(len(c.items))
	stats.HitRate = hitRate(stats)

	return stats
}

// Verify checks that the running total equals the sum of entry sizes and does
// not exceed the capacity.
func (c *MemoryCache) Verify() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sum int64
	for elem := c.eviction.Front(); elem != nil; elem = elem.Next() {
		sum += elem.Value.(*memoryCacheEntry).size
	}

	switch {
	case sum != c.size:
		return fmt.Errorf("%w: running total %d, entries sum to %d", ErrCacheCorrupted, c.size, sum)
	case c.size > c.capacity:
		return fmt.Errorf("%w: size %d exceeds capacity %d", ErrCacheCorrupted, c.size, c.capacity)
	case c.eviction.Len() != len(c.items):
		return fmt.Errorf("%w: %d queued entries, %d indexed", ErrCacheCorrupted, c.eviction.Len(), len(c.items))
	}
	return nil
}

// evictOldest removes the oldest inserted item (must be called with lock held).
func (c *MemoryCache) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
		c.stats.Evictions++
		c.stats.LastEvict = time.Now()
	}
}

// removeElement removes an element from the cache (must be called with lock held).
func (c *MemoryCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*memoryCacheEntry)
	delete(c.items, entry.key)
	c.size -= entry.size
}
