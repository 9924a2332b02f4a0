package store

import (
	"container/list"
	"sync"
)

// readCache is a bounded LRU over decoded GetAll results, grounded on the
// byte-and-entry-budgeted list+map cache pattern (evict from the back of
// a container/list on either budget, promote to the front on hit).
// cacheSize bounds total cached bytes; pageSize approximates one entry's
// footprint so a larger page size holds fewer, bigger entries for the
// same byte budget, the same way a page-oriented store would size its
// buffer pool from page size and cache size together.
type readCache struct {
	maxEntries int
	maxBytes   int64

	mu       sync.Mutex
	order    *list.List
	entries  map[string]*list.Element
	curBytes int64
}

type readCacheEntry struct {
	key    string
	values [][]byte
}

// newReadCache returns nil when cacheSize is zero or negative, disabling
// caching entirely; callers must treat a nil *readCache as a no-op cache.
func newReadCache(pageSize, cacheSize int) *readCache {
	if cacheSize <= 0 {
		return nil
	}
	if pageSize <= 0 {
		pageSize = 4096
	}
	maxEntries := cacheSize / pageSize
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &readCache{
		maxEntries: maxEntries,
		maxBytes:   int64(cacheSize),
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *readCache) get(key []byte) ([][]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[string(key)]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*readCacheEntry).values, true
}

func (c *readCache) put(key []byte, values [][]byte) {
	if c == nil {
		return
	}
	size := valuesSize(values)
	c.mu.Lock()
	defer c.mu.Unlock()

	k := string(key)
	if elem, ok := c.entries[k]; ok {
		existing := elem.Value.(*readCacheEntry)
		c.curBytes -= valuesSize(existing.values)
		existing.values = values
		c.curBytes += size
		c.order.MoveToFront(elem)
	} else {
		elem := c.order.PushFront(&readCacheEntry{key: k, values: values})
		c.entries[k] = elem
		c.curBytes += size
	}
	c.evict()
}

func (c *readCache) invalidate(key []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[string(key)]; ok {
		c.remove(elem)
	}
}

func (c *readCache) evict() {
	for (c.maxEntries > 0 && len(c.entries) > c.maxEntries) || c.curBytes > c.maxBytes {
		elem := c.order.Back()
		if elem == nil {
			return
		}
		c.remove(elem)
	}
}

func (c *readCache) remove(elem *list.Element) {
	entry := elem.Value.(*readCacheEntry)
	c.curBytes -= valuesSize(entry.values)
	delete(c.entries, entry.key)
	c.order.Remove(elem)
}

func valuesSize(values [][]byte) int64 {
	var n int64
	for _, v := range values {
		n += int64(len(v))
	}
	return n
}
