// ABOUTME: Thread-safe TTL and LRU bounded cache of parsed queries
// ABOUTME: Used by the sandbox to skip re-parsing repeated query text

package querycache

import (
	"container/list"
	"sync"
	"time"
)

type entry[V any] struct {
	key     string
	value   V
	stored  time.Time
	element *list.Element
}

// Cache maps query text to a parsed value of type V.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	order   *list.List // least recently used at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache whose entries live for ttl, holding at most maxSize.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &Cache[V]{
		entries: make(map[string]*entry[V]),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns the value stored under key, if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.stored) >= c.ttl {
		c.removeLocked(e)
		var zero V
		return zero, false
	}
	c.order.MoveToBack(e.element)
	return e.value, true
}

// Put stores value under key, evicting the least recently used entry when full.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.stored = c.now()
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		if front := c.order.Front(); front != nil {
			c.removeLocked(front.Value.(*entry[V]))
		}
	}

	e := &entry[V]{key: key, value: value, stored: c.now()}
	e.element = c.order.PushBack(e)
	c.entries[key] = e
}

// Len reports the number of stored entries, expired ones included until swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Must be called with mu held.
func (c *Cache[V]) removeLocked(e *entry[V]) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}

func (c *Cache[V]) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *Cache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, e := range c.entries {
		if now.Sub(e.stored) >= c.ttl {
			c.removeLocked(e)
		}
	}
}

// Close stops the background sweep. It is safe to call more than once.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
