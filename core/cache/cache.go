// Package cache provides a small LRU cache for compiled query expressions.
package cache

import (
	"container/list"
	"sync"
)

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a thread-safe least-recently-used cache. A zero MaxSize means the
// cache never evicts.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	entries map[K]*list.Element
	order   *list.List
	stats   Stats
}

// New creates an LRU cache holding at most maxSize entries.
func New[K comparable, V any](maxSize int) *LRU[K, V] {
	if maxSize < 0 {
		maxSize = 0
	}
	return &LRU[K, V]{
		maxSize: maxSize,
		entries: make(map[K]*list.Element),
		order:   list.New(),
	}
}

// Get retrieves a value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

func (c *LRU[K, V]) get(key K) (V, bool) {
	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*entry[K, V]).value, true
}

// Put stores a value, evicting the least recently used entry when full.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value)
}

func (c *LRU[K, V]) put(key K, value V) {
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*entry[K, V]).value = value
		return
	}
	c.entries[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.maxSize > 0 && c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry[K, V]).key)
		c.stats.Evictions++
	}
}

// GetOrCompute returns the cached value for key, or computes, stores and
// returns it. Errors are returned and not cached.
func (c *LRU[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.get(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := compute()
	if err != nil {
		return v, err
	}
	c.Put(key, v)
	return v, nil
}

// Remove removes a value from the cache.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Len returns the number of entries in the cache.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	s.MaxSize = c.maxSize
	return s
}
