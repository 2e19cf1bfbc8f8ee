// Package cache provides a TTL-bounded in-memory store for complete
// responses. Expired entries are evicted lazily on read; there is no sweeper
// goroutine. The store is unbounded in size, so long-running processes with
// a high cardinality of distinct requests should periodically Clear or front
// the client with their own keyed eviction.
package cache

import (
	"sync"
	"time"

	"github.com/aschepis/llmgate/llm"
)

// Cache is the response cache consumed by the dispatch pipeline.
type Cache interface {
	Get(key string) (*llm.Response, bool)
	Set(key string, value *llm.Response, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Entry holds a cached value and its lifetime bounds.
type Entry struct {
	Value     *llm.Response
	StoredAt  time.Time
	ExpiresAt time.Time
}

// InMemory is a mutex-guarded TTL map. A zero ttl on Set falls back to the
// default configured at construction.
type InMemory struct {
	mu         sync.RWMutex
	store      map[string]*Entry
	defaultTTL time.Duration

	now func() time.Time
}

// NewInMemory creates an in-memory cache with the given default TTL.
func NewInMemory(defaultTTL time.Duration) *InMemory {
	return &InMemory{
		store:      make(map[string]*Entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get retrieves a live entry. An expired entry is treated as absent and
// removed inline.
func (c *InMemory) Get(key string) (*llm.Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}

	if !c.now().Before(entry.ExpiresAt) {
		delete(c.store, key)
		return nil, false
	}

	return entry.Value, true
}

// Set stores a value. ttl <= 0 uses the default TTL.
func (c *InMemory) Set(key string, value *llm.Response, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored := c.now()
	c.store[key] = &Entry{
		Value:     value,
		StoredAt:  stored,
		ExpiresAt: stored.Add(ttl),
	}
}

// Delete removes an entry.
func (c *InMemory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.store, key)
}

// Clear removes all entries.
func (c *InMemory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*Entry)
}

// Len reports the number of stored entries, including any not yet lazily
// evicted.
func (c *InMemory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.store)
}

var _ Cache = (*InMemory)(nil)
