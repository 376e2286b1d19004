// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about update checks, registry requests and cache lookups.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries. The prometheus
// subpackage provides a ready-made implementation.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := prometheus.New(registry)
//	    observability.SetResolverHooks(m)
//	    observability.SetRegistryHooks(m)
//	    observability.SetCacheHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolver().OnCheckStart(ctx, "cargo", "serde")
//	// ... check ...
//	observability.Resolver().OnCheckComplete(ctx, "cargo", "serde", outcome, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Outcomes reported by OnCheckComplete.
const (
	OutcomeUpToDate    = "up_to_date"
	OutcomeUpdatable   = "updatable"
	OutcomeUnresolved  = "unresolved"
	OutcomeFailed      = "failed"
	OutcomeAllIgnored  = "all_ignored"
	OutcomeMoreContext = "needs_context"
)

// =============================================================================
// Resolver Hooks
// =============================================================================

// ResolverHooks receives events from update checks.
type ResolverHooks interface {
	OnCheckStart(ctx context.Context, ecosystem, dependency string)
	OnCheckComplete(ctx context.Context, ecosystem, dependency, outcome string, duration time.Duration, err error)
}

// =============================================================================
// Registry Hooks
// =============================================================================

// RegistryHooks receives events from registry clients.
type RegistryHooks interface {
	// OnRequest records an outgoing request. path never carries credentials.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records a response or transport failure (statusCode 0).
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration, err error)

	// OnRetry records a retried attempt against a registry namespace.
	OnRetry(ctx context.Context, registry string, attempt int, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolverHooks is a no-op implementation of ResolverHooks.
type NoopResolverHooks struct{}

func (NoopResolverHooks) OnCheckStart(context.Context, string, string) {}
func (NoopResolverHooks) OnCheckComplete(context.Context, string, string, string, time.Duration, error) {
}

// NoopRegistryHooks is a no-op implementation of RegistryHooks.
type NoopRegistryHooks struct{}

func (NoopRegistryHooks) OnRequest(context.Context, string, string, string) {}
func (NoopRegistryHooks) OnResponse(context.Context, string, string, string, int, time.Duration, error) {
}
func (NoopRegistryHooks) OnRetry(context.Context, string, int, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolverHooks ResolverHooks = NoopResolverHooks{}
	registryHooks RegistryHooks = NoopRegistryHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetResolverHooks registers custom resolver hooks.
// This should be called once at application startup before any checks run.
func SetResolverHooks(h ResolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolverHooks = h
	}
}

// SetRegistryHooks registers custom registry hooks.
func SetRegistryHooks(h RegistryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		registryHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Resolver returns the registered resolver hooks.
func Resolver() ResolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolverHooks
}

// Registry returns the registered registry hooks.
func Registry() RegistryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return registryHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolverHooks = NoopResolverHooks{}
	registryHooks = NoopRegistryHooks{}
	cacheHooks = NoopCacheHooks{}
}
