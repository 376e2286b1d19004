package cache

import "github.com/google/uuid"

// ScopedKeyer wraps a Keyer with a prefix. The CLI and API server scope
// every check run with its own prefix so the write-once semantics hold per
// run even on a shared backend.
//
// Example usage:
//
//	keyer, runID := NewRunKeyer(NewDefaultKeyer())
//	// keys look like "run:<uuid>:http:crates:serde"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// NewRunKeyer scopes inner to a fresh run id and returns the id.
func NewRunKeyer(inner Keyer) (Keyer, string) {
	id := uuid.NewString()
	return NewScopedKeyer(inner, "run:"+id+":"), id
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ReleasesKey generates a prefixed key for release lists.
func (k *ScopedKeyer) ReleasesKey(ecosystem, registry, name string) string {
	return k.prefix + k.inner.ReleasesKey(ecosystem, registry, name)
}
