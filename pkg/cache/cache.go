// Package cache provides the response cache shared by registry clients.
//
// A [Cache] stores opaque byte slices under string keys with an optional
// TTL. Entries are written once per key during a run: registry clients use
// [Add], which maps to an atomic insert-if-absent on backends that support
// it ([Adder]) and to check-then-set on the others.
//
// Backends:
//
//   - [NullCache]: stores nothing (--no-cache)
//   - [MemoryCache]: bounded in-process LRU, the per-run default
//   - [FileCache]: one JSON file per key under a directory (CLI)
//   - [RedisCache], [MongoCache]: shared caches for the API server
//
// Keys are produced by a [Keyer]; [ScopedKeyer] prefixes every key so that
// one run cannot observe another run's entries.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the data for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Adder is implemented by caches with an atomic insert-if-absent.
type Adder interface {
	// SetIfAbsent stores data unless a live entry exists and reports whether
	// it stored.
	SetIfAbsent(ctx context.Context, key string, data []byte, ttl time.Duration) (bool, error)
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Add stores data under key unless an entry already exists. It reports
// whether data was stored.
func Add(ctx context.Context, c Cache, key string, data []byte, ttl time.Duration) (bool, error) {
	if a, ok := c.(Adder); ok {
		return a.SetIfAbsent(ctx, key, data, ttl)
	}
	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		return false, err
	}
	return true, c.Set(ctx, key, data, ttl)
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey is the key for a raw registry response.
	HTTPKey(namespace, key string) string
	// ReleasesKey is the key for the release list of one dependency.
	ReleasesKey(ecosystem, registry, name string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>", hashing overlong keys.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + compactKey(key)
}

// ReleasesKey hashes the dependency coordinates.
func (DefaultKeyer) ReleasesKey(ecosystem, registry, name string) string {
	return hashKey("releases", ecosystem, registry, name)
}
