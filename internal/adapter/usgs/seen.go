package usgs

import "sync"

// seenResult classifies a feature against the seen-cache.
type seenResult string

const (
	seenNew       seenResult = "new"
	seenUpdated   seenResult = "updated"
	seenUnchanged seenResult = "unchanged"
)

// seenCache is a thread-safe LRU of feature id -> last "updated" timestamp (ms).
type seenCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	updated int64
	prev    *entry
	next    *entry
}

func newSeenCache(maxEntries int) *seenCache {
	return &seenCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// classify reports whether a feature is new, has changed since it was last
// marked, or is unchanged. An unchanged hit refreshes the entry's recency;
// versions are only recorded by mark.
func (c *seenCache) classify(id string, updated int64) seenResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return seenNew
	}
	if e.updated == updated {
		c.moveToFront(e)
		return seenUnchanged
	}
	return seenUpdated
}

// mark records the updated timestamp for id, evicting the least recently
// marked entry when full.
func (c *seenCache) mark(id string, updated int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		e.updated = updated
		c.moveToFront(e)
		return
	}

	e := &entry{key: id, updated: updated}
	c.entries[id] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *seenCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *seenCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *seenCache) addToFront(e *entry) {
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

func (c *seenCache) remove(e *entry) {
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

func (c *seenCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
