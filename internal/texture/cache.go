package texture

import (
	"container/list"
)

// DefaultCacheCapacity bounds the cache when no capacity is configured.
const DefaultCacheCapacity = 64

type cacheEntry struct {
	url string
	tex *Texture
}

// Cache is a bounded key->texture store with least-recently-used eviction.
// It is owned by one tile manager and mutated only from the cooperative
// thread, so it needs no locking.
type Cache struct {
	capacity int
	order    *list.List // front = most recently used
	entries  map[string]*list.Element
}

// NewCache creates a cache holding at most capacity textures. A capacity
// of zero or less falls back to DefaultCacheCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the texture for url, marking it most recently used.
func (c *Cache) Get(url string) (*Texture, bool) {
	elem, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).tex, true
}

// Put inserts or overwrites the texture for url and evicts the least
// recently used entries if the capacity is exceeded.
func (c *Cache) Put(url string, tex *Texture) {
	if elem, ok := c.entries[url]; ok {
		entry := elem.Value.(*cacheEntry)
		if entry.tex != tex {
			entry.tex.Release()
			entry.tex = tex
		}
		c.order.MoveToFront(elem)
		return
	}

	c.entries[url] = c.order.PushFront(&cacheEntry{url: url, tex: tex})
	cacheEntries.Set(float64(c.order.Len()))
	c.evictIfNeeded()
}

// Len returns the current entry count.
func (c *Cache) Len() int { return c.order.Len() }

// evictIfNeeded releases least-recently-used entries until the cache is
// within capacity again.
func (c *Cache) evictIfNeeded() {
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		entry := oldest.Value.(*cacheEntry)
		c.order.Remove(oldest)
		delete(c.entries, entry.url)
		entry.tex.Release()
		cacheEvictions.Inc()
	}
	cacheEntries.Set(float64(c.order.Len()))
}

// Clear releases every cached texture. Used on manager disposal.
func (c *Cache) Clear() {
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		elem.Value.(*cacheEntry).tex.Release()
	}
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	cacheEntries.Set(0)
}
