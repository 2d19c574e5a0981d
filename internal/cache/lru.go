package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a fixed-capacity cache whose entries also expire after a
// TTL. Reads refresh recency; writes past capacity evict the least
// recently used entry.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front is most recently used; values are keys
	entries  map[string]*entry[V]
}

type entry[V any] struct {
	value   V
	expires time.Time
	node    *list.Element
}

// New returns an empty LRU holding at most capacity entries, each
// valid for ttl after its last write.
func New[V any](capacity int, ttl time.Duration) *LRU[V] {
	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		entries:  make(map[string]*entry[V]),
	}
}

// Get returns the live value for key, refreshing its recency. An
// expired entry is evicted and reported as a miss.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expires) {
		c.evict(key)
		return zero, false
	}
	c.order.MoveToFront(e.node)
	return e.value, true
}

// Put stores value under key, resetting its TTL. Inserting beyond
// capacity drops the least recently used entry.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := time.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.order.MoveToFront(e.node)
		return
	}

	c.entries[key] = &entry[V]{
		value:   value,
		expires: expires,
		node:    c.order.PushFront(key),
	}
	if c.order.Len() > c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.evict(oldest.Value.(string))
		}
	}
}

// Drop removes key if present.
func (c *LRU[V]) Drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.evict(key)
	}
}

// Prune evicts every expired entry and reports how many went.
func (c *LRU[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var stale []string
	for key, e := range c.entries {
		if now.After(e.expires) {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		c.evict(key)
	}
	return len(stale)
}

// Len reports the number of entries, expired ones included until the
// next Get or Prune touches them.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evict removes key; callers hold the lock.
func (c *LRU[V]) evict(key string) {
	e := c.entries[key]
	c.order.Remove(e.node)
	delete(c.entries, key)
}
