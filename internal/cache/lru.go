package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a size-bounded cache whose entries also expire after ttl.
// A zero ttl disables expiry.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[K]*list.Element
	order   *list.List
	now     func() time.Time
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

func NewLRU[K comparable, V any](maxSize int, ttl time.Duration) *LRU[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[K, V]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[K]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	e := elem.Value.(*entry[K, V])
	if c.expired(e, c.now()) {
		c.remove(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[K, V]{key: key, value: value}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		c.remove(c.order.Back())
	}
}

func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// CleanExpired removes every expired entry and returns how many were dropped.
func (c *LRU[K, V]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if c.expired(elem.Value.(*entry[K, V]), now) {
			c.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[K, V]) expired(e *entry[K, V], now time.Time) bool {
	return c.ttl > 0 && now.After(e.expiresAt)
}

func (c *LRU[K, V]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[K, V]).key)
	c.order.Remove(elem)
}
