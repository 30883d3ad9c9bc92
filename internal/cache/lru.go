package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/wordgain/resource"
)

// LRU is a thread-safe least-recently-used cache bounded by total weight.
type LRU[K comparable, V any] struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[K]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable, V any] struct {
	key    K
	value  V
	weight int64
}

// NewLRU creates a cache holding up to capacity bytes.
// If rc is provided, cached weight is reserved against its memory budget and
// the cache shrinks whenever rc needs room for a blocking reservation.
func NewLRU[K comparable, V any](capacity int64, rc *resource.Controller) *LRU[K, V] {
	c := &LRU[K, V]{
		capacity:  capacity,
		items:     make(map[K]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
	rc.RegisterReclaimer(c.Shrink)
	return c
}

// Get returns a cached value.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry[K, V]).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set caches a value with the given weight. Values heavier than the whole
// capacity are not cached.
func (c *LRU[K, V]) Set(key K, value V, weight int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
	}
	if weight > c.capacity {
		return
	}

	for c.size+weight > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}

	// The global budget wins over the local capacity.
	if !c.rc.TryAcquireMemory(weight) {
		return
	}

	c.items[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value, weight: weight})
	c.size += weight
}

// Remove drops a key.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
	}
}

// Purge drops every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

// Shrink evicts least-recently-used entries until at least bytes have been
// freed or the cache is empty. It returns the weight released.
func (c *LRU[K, V]) Shrink(bytes int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var freed int64
	for freed < bytes {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		freed += ent.Value.(*entry[K, V]).weight
		c.removeElement(ent)
	}
	return freed
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the current weight of the cache in bytes.
func (c *LRU[K, V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns hit and miss counts.
func (c *LRU[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU[K, V]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry[K, V])
	delete(c.items, kv.key)
	c.size -= kv.weight
	c.rc.ReleaseMemory(kv.weight)
}
