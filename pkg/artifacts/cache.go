package artifacts

import (
	"context"
	"sync"
	"sync/atomic"
)

// Cache wraps a Service with a read-through in-memory cache so repeated
// attachment downloads within a conversation don't hit the backend again.
// Saves invalidate the cached entry for their ID.
type Cache struct {
	backend Service
	mu      sync.RWMutex
	entries map[string]*Artifact
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache wraps an artifact service with caching
func NewCache(backend Service) *Cache {
	return &Cache{
		backend: backend,
		entries: make(map[string]*Artifact),
	}
}

// Save stores through to the backend and refreshes the cache
func (c *Cache) Save(ctx context.Context, scope Scope, id string, art Artifact) error {
	if err := c.backend.Save(ctx, scope, id, art); err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[memKey(scope, id)] = &art
	c.mu.Unlock()
	return nil
}

// Load returns a cached artifact when present, falling back to the backend
func (c *Cache) Load(ctx context.Context, scope Scope, id string) (*Artifact, error) {
	key := memKey(scope, id)

	c.mu.RLock()
	art, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return art, nil
	}
	c.misses.Add(1)

	art, err := c.backend.Load(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = art
	c.mu.Unlock()
	return art, nil
}

// Versions delegates to the backend
func (c *Cache) Versions(ctx context.Context, scope Scope, id string) ([]int, error) {
	return c.backend.Versions(ctx, scope, id)
}

// Delete evicts the cached entry and deletes from the backend
func (c *Cache) Delete(ctx context.Context, scope Scope, id string) error {
	c.mu.Lock()
	delete(c.entries, memKey(scope, id))
	c.mu.Unlock()
	return c.backend.Delete(ctx, scope, id)
}

// Stats returns cache hit and miss counts
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close closes the backend
func (c *Cache) Close() error {
	return c.backend.Close()
}
