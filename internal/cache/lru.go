package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// LRU is a thread-safe bounded cache whose entries also expire after a TTL.
// Expired entries are treated as misses and removed when touched.
type LRU[V any] struct {
	maxEntries int
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time // zero means no expiry
	prev    *entry[V]
	next    *entry[V]
}

// NewLRU creates a cache holding at most maxEntries items. A nil clock uses
// the real clock.
func NewLRU[V any](maxEntries int, clock clockwork.Clock) *LRU[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &LRU[V]{
		maxEntries: maxEntries,
		clock:      clock,
		entries:    make(map[string]*entry[V]),
	}
}

// Get returns the live value for key.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !e.expires.IsZero() && !c.clock.Now().Before(e.expires) {
		c.delete(e)
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

// Put stores value under key. A ttl <= 0 never expires.
func (c *LRU[V]) Put(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = c.clock.Now().Add(ttl)
	}

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.delete(c.tail)
	}
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRU[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *LRU[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU[V]) unlink(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *LRU[V]) delete(e *entry[V]) {
	if e == nil {
		return
	}
	delete(c.entries, e.key)
	c.unlink(e)
}
