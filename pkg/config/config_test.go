package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func load(t *testing.T, opts ...LoadOption) *Config {
	t.Helper()
	cfg, err := Load(opts...)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := load(t)

	if cfg.OpenTimeout != DefaultOpenTimeout || cfg.ReadTimeout != DefaultReadTimeout {
		t.Errorf("timeouts = %v/%v", cfg.OpenTimeout, cfg.ReadTimeout)
	}
	if cfg.RetryAttempts != DefaultRetryAttempts || cfg.RetryDelay != DefaultRetryDelay {
		t.Errorf("retry = %d/%v", cfg.RetryAttempts, cfg.RetryDelay)
	}
	if cfg.CacheBackend != CacheMemory {
		t.Errorf("CacheBackend = %q, want %q", cfg.CacheBackend, CacheMemory)
	}
	if cfg.CacheTTL != DefaultCacheTTL {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if len(cfg.Features) != 0 {
		t.Errorf("Features = %v", cfg.Features)
	}
}

func TestLoadDefaultBackend(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cfg := load(t, WithCacheBackend(CacheFile))
	if cfg.CacheBackend != CacheFile || cfg.CacheDir == "" {
		t.Errorf("backend = %q dir = %q", cfg.CacheBackend, cfg.CacheDir)
	}

	t.Setenv("UPDATECHECK_CACHE_BACKEND", "none")
	if cfg := load(t, WithCacheBackend(CacheFile)); cfg.CacheBackend != CacheNone {
		t.Errorf("environment should override the default backend, got %q", cfg.CacheBackend)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("UPDATECHECK_REGISTRY_OPEN_TIMEOUT", "2")
	t.Setenv("UPDATECHECK_REGISTRY_READ_TIMEOUT", "30")
	t.Setenv("UPDATECHECK_RETRY_ATTEMPTS", "5")
	t.Setenv("UPDATECHECK_CACHE_TTL", "90s")
	t.Setenv("UPDATECHECK_FEATURES", "docker_precision, composer_platform_discovery")

	cfg := load(t)

	if cfg.OpenTimeout != 2*time.Second || cfg.ReadTimeout != 30*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.OpenTimeout, cfg.ReadTimeout)
	}
	if cfg.RetryAttempts != 5 {
		t.Errorf("RetryAttempts = %d", cfg.RetryAttempts)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if !cfg.Feature("docker_precision") || !cfg.Feature("composer_platform_discovery") || cfg.Feature("unknown") {
		t.Errorf("Features = %v", cfg.Features)
	}
}

func TestLoadConfigFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "updatecheck.yaml")
	err := os.WriteFile(file, []byte(`
registry:
  read_timeout: 20
cache:
  backend: file
  dir: /tmp/uc
features:
  - docker_precision
credentials:
  - type: npm_registry
    host: https://npm.example.com
    token: secret
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("UPDATECHECK_RETRY_ATTEMPTS=7\nUPDATECHECK_REGISTRY_READ_TIMEOUT=4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UPDATECHECK_REGISTRY_READ_TIMEOUT", "15")

	cfg := load(t, WithConfigFile(file), WithDotEnv(dotenv))

	if cfg.CacheBackend != CacheFile || cfg.CacheDir != "/tmp/uc" {
		t.Errorf("cache = %q %q", cfg.CacheBackend, cfg.CacheDir)
	}
	if cfg.RetryAttempts != 7 {
		t.Errorf(".env should fill unset variables: RetryAttempts = %d", cfg.RetryAttempts)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Errorf("environment should win over .env: ReadTimeout = %v", cfg.ReadTimeout)
	}
	if !cfg.Feature("docker_precision") {
		t.Error("feature from file not enabled")
	}

	cred, ok := cfg.CredentialFor("npm.example.com")
	if !ok {
		t.Fatal("credential not found")
	}
	if got := cred.Header(); got != "Bearer secret" {
		t.Errorf("Header() = %q", got)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	if _, err := Load(WithDotEnv(filepath.Join(t.TempDir(), "missing.env"))); err != nil {
		t.Errorf("Load: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"unknown backend", (&Config{CacheBackend: "memcached"}).WithDefaults(), true},
		{"redis without url", (&Config{CacheBackend: CacheRedis}).WithDefaults(), true},
		{"redis", (&Config{CacheBackend: CacheRedis, RedisURL: "redis://localhost"}).WithDefaults(), false},
		{"default", Default(), false},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestCredentialHeader(t *testing.T) {
	if got := (Credential{Username: "user", Password: "pass"}).Header(); got != "Basic dXNlcjpwYXNz" {
		t.Errorf("Header() = %q", got)
	}
	if got := (Credential{Host: "example.com"}).Header(); got != "" {
		t.Errorf("Header() = %q, want empty", got)
	}
}
