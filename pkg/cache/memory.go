package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the entry limit used when none is configured.
const DefaultMemorySize = 4096

// MemoryCache is a bounded in-process cache. Least recently used entries
// are evicted once the size limit is reached.
type MemoryCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, cacheEntry]
	now func() time.Time
}

// NewMemoryCache creates a memory cache holding up to size entries.
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	l, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: l, now: time.Now}, nil
}

// Get retrieves a live entry.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		c.lru.Remove(key)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set stores an entry.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, c.entry(data, ttl))
	return nil
}

// SetIfAbsent stores an entry unless a live one exists.
func (c *MemoryCache) SetIfAbsent(ctx context.Context, key string, data []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Peek(key); ok && !e.expired(c.now()) {
		return false, nil
	}
	c.lru.Add(key, c.entry(data, ttl))
	return true, nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.lru.Len()
	c.lru.Purge()
	return n, nil
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Close does nothing.
func (c *MemoryCache) Close() error {
	return nil
}

func (c *MemoryCache) entry(data []byte, ttl time.Duration) cacheEntry {
	e := cacheEntry{Data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.ExpiresAt = c.now().Add(ttl)
	}
	return e
}

var (
	_ Cache   = (*MemoryCache)(nil)
	_ Adder   = (*MemoryCache)(nil)
	_ Clearer = (*MemoryCache)(nil)
)
