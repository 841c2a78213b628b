package cache

import (
	"sync"
	"time"
)

type entry struct {
	v   any
	exp time.Time
}

// TTL is an in-memory key/value store with per-entry expiry. Entries are
// evicted lazily on the first read past their expiry. Concurrent writers for
// the same key race last-writer-wins, which is acceptable for idempotent
// recomputation.
type TTL struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

// New creates an empty TTL cache.
func New() *TTL {
	return &TTL{m: make(map[string]entry), now: time.Now}
}

// NewWithClock creates a cache with an injectable clock, for tests.
func NewWithClock(now func() time.Time) *TTL {
	return &TTL{m: make(map[string]entry), now: now}
}

// Get returns the value for key, or ok=false on a miss or an expired entry.
func (c *TTL) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

// Set stores v under key for ttl. ttl <= 0 stores without expiry.
func (c *TTL) Set(key string, v any, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{v: v, exp: exp}
	c.mu.Unlock()
}

// Delete removes key if present.
func (c *TTL) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}
