package cache

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Every Add looks like the first writer
	stored, err := Add(ctx, c, "key", []byte("value"), 0)
	if err != nil || !stored {
		t.Errorf("Add on NullCache = %v, %v; want true, nil", stored, err)
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	httpKey := k.HTTPKey("crates:", "serde")
	if httpKey != "http:crates::serde" {
		t.Errorf("HTTPKey unexpected: %s", httpKey)
	}

	long := "https://registry.example.com/v2/library/nginx/tags/list?n=1000&last=" + strings.Repeat("x", 200)
	compact := k.HTTPKey("oci", long)
	if compact == "http:oci:"+long || !strings.HasPrefix(compact, "http:oci:sha256-") {
		t.Errorf("HTTPKey should hash long keys: %s", compact)
	}
	if k.HTTPKey("oci", long) != compact {
		t.Error("HTTPKey should be deterministic")
	}

	if k.ReleasesKey("npm", "a:b", "c") == k.ReleasesKey("npm", "a", "b:c") {
		t.Error("ReleasesKey parts should not run together")
	}

	rk1 := k.ReleasesKey("cargo", "https://crates.io", "serde")
	rk2 := k.ReleasesKey("cargo", "https://my-mirror.example", "serde")
	if rk1 == rk2 {
		t.Error("Different registries should produce different keys")
	}
	if !strings.HasPrefix(rk1, "releases:") {
		t.Errorf("ReleasesKey should be prefixed: %s", rk1)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "user:123:")

	httpKey := scoped.HTTPKey("npm:", "express")
	if httpKey != "user:123:http:npm::express" {
		t.Errorf("ScopedKeyer HTTPKey unexpected: %s", httpKey)
	}

	rk := scoped.ReleasesKey("npm", "", "express")
	if !strings.HasPrefix(rk, "user:123:releases:") {
		t.Errorf("ScopedKeyer ReleasesKey should be prefixed: %s", rk)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.HTTPKey("test:", "key")
	if key != "prefix:http:test::key" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRunKeyer(t *testing.T) {
	k1, id1 := NewRunKeyer(nil)
	k2, id2 := NewRunKeyer(nil)
	if id1 == id2 {
		t.Fatal("run ids should be unique")
	}
	if k1.HTTPKey("a", "b") == k2.HTTPKey("a", "b") {
		t.Error("keys from different runs should differ")
	}
	if !strings.Contains(k1.HTTPKey("a", "b"), id1) {
		t.Error("key should contain the run id")
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	stored, err := c.SetIfAbsent(ctx, "k", []byte("v2"), time.Hour)
	if err != nil || stored {
		t.Errorf("SetIfAbsent on existing key = %v, %v; want false, nil", stored, err)
	}
	data, _, _ = c.Get(ctx, "k")
	if string(data) != "v1" {
		t.Errorf("existing entry overwritten: %q", data)
	}

	stored, err = c.SetIfAbsent(ctx, "other", []byte("v3"), 0)
	if err != nil || !stored {
		t.Errorf("SetIfAbsent on new key = %v, %v; want true, nil", stored, err)
	}

	if err := c.Set(ctx, "expired", []byte("old"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "expired"); hit {
		t.Error("expired entry should miss")
	}
	stored, _ = c.SetIfAbsent(ctx, "expired", []byte("new"), 0)
	if !stored {
		t.Error("expired entry should not block SetIfAbsent")
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Clear")
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("Clear left %d subdirectories", len(entries))
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatalf("NewMemoryCache: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if stored, _ := c.SetIfAbsent(ctx, "a", []byte("x"), 0); stored {
		t.Error("SetIfAbsent should not replace a live entry")
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry should have expired")
	}
	if stored, _ := c.SetIfAbsent(ctx, "a", []byte("x"), 0); !stored {
		t.Error("SetIfAbsent should replace an expired entry")
	}

	// size limit evicts the least recently used entry
	_ = c.Set(ctx, "c", []byte("3"), 0)
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	n, _ := c.Clear(ctx)
	if n != 2 || c.Len() != 0 {
		t.Errorf("Clear = %d, Len = %d", n, c.Len())
	}
}

func TestMemoryCacheConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(0)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := Add(ctx, c, "key", []byte("v"), 0); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Errorf("%d writers stored, want exactly 1", wins.Load())
	}
}

// plainCache hides the Adder implementation of the wrapped cache.
type plainCache struct{ Cache }

func TestAddFallback(t *testing.T) {
	ctx := context.Background()
	mem, _ := NewMemoryCache(0)
	c := plainCache{mem}

	if ok, err := Add(ctx, c, "k", []byte("1"), 0); !ok || err != nil {
		t.Fatalf("first Add = %v, %v", ok, err)
	}
	if ok, _ := Add(ctx, c, "k", []byte("2"), 0); ok {
		t.Error("second Add should not store")
	}
	data, _, _ := c.Get(ctx, "k")
	if string(data) != "1" {
		t.Errorf("value = %q, want 1", data)
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("UPDATECHECK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("UPDATECHECK_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()
	testSharedBackend(t, c)
}

func TestMongoCache(t *testing.T) {
	uri := os.Getenv("UPDATECHECK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("UPDATECHECK_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	c, err := NewMongoCache(ctx, uri)
	if err != nil {
		t.Fatalf("NewMongoCache: %v", err)
	}
	defer c.Close()
	testSharedBackend(t, c)
}

func testSharedBackend(t *testing.T, c interface {
	Cache
	Adder
}) {
	t.Helper()
	ctx := context.Background()
	key, _ := NewRunKeyer(nil)
	k := key.HTTPKey("test", "entry")
	defer c.Delete(ctx, k)

	if stored, err := c.SetIfAbsent(ctx, k, []byte("first"), time.Minute); err != nil || !stored {
		t.Fatalf("SetIfAbsent = %v, %v", stored, err)
	}
	if stored, _ := c.SetIfAbsent(ctx, k, []byte("second"), time.Minute); stored {
		t.Error("second SetIfAbsent should not store")
	}
	data, hit, err := c.Get(ctx, k)
	if err != nil || !hit || string(data) != "first" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, k); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, k); hit {
		t.Error("entry should be gone after Delete")
	}
}
