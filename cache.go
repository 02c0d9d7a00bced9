package siteserver

import (
	"sync"
	"time"
)

// contentCache holds the most recently fetched document per section with a
// fixed TTL. It exists to keep page renders off the remote store; the store
// itself stays the source of truth.
type contentCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	doc     Document
	fetched time.Time
}

func newContentCache(ttl time.Duration) *contentCache {
	return &contentCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// get returns the cached document only while it is younger than the TTL.
func (c *contentCache) get(section string) (Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[section]
	if !ok || c.now().Sub(e.fetched) >= c.ttl {
		return Document{}, false
	}
	return e.doc, true
}

// getStale returns the cached document regardless of age. Used only after a
// fresh fetch has failed, when old data beats no data.
func (c *contentCache) getStale(section string) (Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[section]
	return e.doc, ok
}

func (c *contentCache) put(section string, doc Document) {
	c.mu.Lock()
	c.entries[section] = cacheEntry{doc: doc, fetched: c.now()}
	c.mu.Unlock()
}

// clearAll drops every entry, not just the written section's. A save to one
// section invalidates everything so the admin's next load of any tab is
// guaranteed fresh.
func (c *contentCache) clearAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
