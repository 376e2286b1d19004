// Package config loads runtime settings for registry access, caching and
// batch execution.
//
// Settings come from, in increasing precedence: built-in defaults, an
// optional config file (YAML or TOML), an optional .env file and the
// process environment. Environment variables use the UPDATECHECK_ prefix
// with dots replaced by underscores:
//
//	UPDATECHECK_REGISTRY_OPEN_TIMEOUT=5     # seconds
//	UPDATECHECK_REGISTRY_READ_TIMEOUT=10    # seconds
//	UPDATECHECK_RETRY_ATTEMPTS=3
//	UPDATECHECK_CACHE_BACKEND=redis
//	UPDATECHECK_CACHE_REDIS_URL=redis://localhost:6379/0
//	UPDATECHECK_FEATURES=composer_platform_discovery,docker_precision
//
// Load is the only place that reads the environment. Everything else
// receives a *Config.
package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/updatecheck/pkg/errors"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "UPDATECHECK"

const appName = "updatecheck"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheMongo  = "mongo"
	CacheNone   = "none"
)

// Defaults.
const (
	DefaultOpenTimeout   = 5 * time.Second
	DefaultReadTimeout   = 10 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
	DefaultCacheTTL      = time.Hour
	DefaultCacheSize     = 4096
	DefaultConcurrency   = 8
	DefaultUserAgent     = "updatecheck (+https://github.com/matzehuels/updatecheck)"
	// DefaultDiscoveryAttempts bounds the platform discovery retry loop.
	DefaultDiscoveryAttempts = 5
)

// Config holds runtime settings.
type Config struct {
	OpenTimeout   time.Duration
	ReadTimeout   time.Duration
	RetryAttempts int
	RetryDelay    time.Duration

	CacheBackend string
	CacheDir     string
	CacheTTL     time.Duration
	CacheSize    int
	RedisURL     string
	MongoURI     string

	UserAgent         string
	Concurrency       int
	DiscoveryAttempts int

	Credentials []Credential
	Features    map[string]bool
}

// Credential authenticates requests to one registry host.
type Credential struct {
	Type     string `mapstructure:"type" yaml:"type" toml:"type"`
	Host     string `mapstructure:"host" yaml:"host" toml:"host"`
	Username string `mapstructure:"username" yaml:"username" toml:"username"`
	Password string `mapstructure:"password" yaml:"password" toml:"password"`
	Token    string `mapstructure:"token" yaml:"token" toml:"token"`
}

// Header returns the Authorization header value, or "" when the credential
// carries nothing usable.
func (c Credential) Header() string {
	switch {
	case c.Token != "":
		return "Bearer " + c.Token
	case c.Username != "" || c.Password != "":
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username+":"+c.Password))
	}
	return ""
}

// Default returns a Config with every default applied.
func Default() *Config {
	return (&Config{}).WithDefaults()
}

// WithDefaults fills zero values with defaults and returns c.
func (c *Config) WithDefaults() *Config {
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = DefaultOpenTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.CacheBackend == "" {
		c.CacheBackend = CacheMemory
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.DiscoveryAttempts <= 0 {
		c.DiscoveryAttempts = DefaultDiscoveryAttempts
	}
	if c.Features == nil {
		c.Features = map[string]bool{}
	}
	return c
}

// Feature reports whether the named feature flag is enabled.
func (c *Config) Feature(name string) bool {
	return c != nil && c.Features[name]
}

// CredentialFor returns the credential configured for host.
func (c *Config) CredentialFor(host string) (Credential, bool) {
	if c == nil {
		return Credential{}, false
	}
	for _, cred := range c.Credentials {
		if strings.EqualFold(errors.SanitizeHost(cred.Host), host) {
			return cred, true
		}
	}
	return Credential{}, false
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheMemory, CacheFile, CacheNone:
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache backend redis requires a redis URL")
		}
	case CacheMongo:
		if c.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache backend mongo requires a mongo URI")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.CacheBackend)
	}
	return nil
}

// DefaultCacheDir returns the cache directory using the XDG standard
// (~/.cache/updatecheck/).
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
