package scoring

import (
	"context"
	"fmt"
	"sync"
)

// LoadFunc produces the Reference for an identifier.
type LoadFunc func(id string) (Reference, error)

type cacheEntry struct {
	done chan struct{}
	ref  Reference
	err  error
}

// Cache memoizes references by identifier. Concurrent first requests for
// the same identifier share one load. Failed loads are not kept.
type Cache struct {
	load LoadFunc

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewCache creates a Cache backed by load.
func NewCache(load LoadFunc) *Cache {
	return &Cache{
		load:    load,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns the cached reference for id, loading it on first use.
func (c *Cache) Get(ctx context.Context, id string) (Reference, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		e = &cacheEntry{done: make(chan struct{})}
		c.entries[id] = e
		c.mu.Unlock()
		c.fill(id, e)
	} else {
		c.mu.Unlock()
	}

	select {
	case <-e.done:
		return e.ref, e.err
	case <-ctx.Done():
		return Reference{}, ctx.Err()
	}
}

func (c *Cache) fill(id string, e *cacheEntry) {
	defer close(e.done)
	defer func() {
		if r := recover(); r != nil {
			e.err = fmt.Errorf("loading reference %q panicked: %v", id, r)
		}
		if e.err != nil {
			c.mu.Lock()
			if c.entries[id] == e {
				delete(c.entries, id)
			}
			c.mu.Unlock()
		}
	}()

	e.ref, e.err = c.load(id)
}

// Invalidate drops id so the next Get reloads it.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the number of cached or in-flight entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
