package pipeline

import "sync"

// engineCache is a thread-safe LRU of per-region engines.
type engineCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *regionEngine
	prev  *entry
	next  *entry
}

func newEngineCache(maxEntries int) *engineCache {
	return &engineCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *engineCache) get(key string) (*regionEngine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

// put stores value under key and returns the region evicted to make room,
// if any.
func (c *engineCache) put(key string, value *regionEngine) (evicted string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.entries[key]; exists {
		e.value = value
		c.moveToFront(e)
		return "", false
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		return c.evictTail(), true
	}
	return "", false
}

func (c *engineCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// snapshot copies the cached regions.
func (c *engineCache) snapshot() map[string]*regionEngine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*regionEngine, len(c.entries))
	for e := c.head; e != nil; e = e.next {
		out[e.key] = e.value
	}
	return out
}

func (c *engineCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *engineCache) addToFront(e *entry) {
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

func (c *engineCache) remove(e *entry) {
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

func (c *engineCache) evictTail() string {
	key := c.tail.key
	delete(c.entries, key)
	c.remove(c.tail)
	return key
}
