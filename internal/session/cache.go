// ABOUTME: Thread-safe TTL cache of session keys known to exist.
// ABOUTME: Lets repeat turns skip the store lookup; sessions are never deleted, so a hit is authoritative.

package session

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry stores the timestamp and list element for a cached key.
type cacheEntry struct {
	timestamp time.Time
	element   *list.Element
}

// Cache remembers recently confirmed session keys. It is bounded by size
// (oldest evicted first) and by TTL. A zero-sized cache never remembers anything.
type Cache struct {
	mu      sync.Mutex
	known   map[string]*cacheEntry
	order   *list.List // keys in insertion order (oldest at front)
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// NewCache creates a cache with the given TTL and maximum size.
// Expired entries are dropped lazily on access and when room is needed.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		known:   make(map[string]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Contains reports whether key was marked and has not expired.
func (c *Cache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.known[key]
	if !ok {
		return false
	}
	if c.now().Sub(entry.timestamp) >= c.ttl {
		c.order.Remove(entry.element)
		delete(c.known, key)
		return false
	}
	return true
}

// Mark records key as known to exist, refreshing its TTL.
func (c *Cache) Mark(key string) {
	if c.maxSize <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if entry, exists := c.known[key]; exists {
		entry.timestamp = now
		c.order.MoveToBack(entry.element)
		return
	}

	for len(c.known) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(key)
	c.known[key] = &cacheEntry{
		timestamp: now,
		element:   elem,
	}
}

// Len returns the number of entries, including any not yet expired lazily.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.known)
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.known, key)
}
