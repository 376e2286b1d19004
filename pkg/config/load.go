package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/matzehuels/updatecheck/pkg/errors"
)

type loadOptions struct {
	configFile string
	dotEnv     string
	backend    string
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithConfigFile reads settings from a YAML or TOML file.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) { o.configFile = path }
}

// WithDotEnv reads variables from a .env file. Variables already present in
// the environment win.
func WithDotEnv(path string) LoadOption {
	return func(o *loadOptions) { o.dotEnv = path }
}

// WithCacheBackend changes the default cache backend. Settings from the
// config file or the environment still win.
func WithCacheBackend(name string) LoadOption {
	return func(o *loadOptions) { o.backend = name }
}

// Load builds a Config from defaults, the optional config file, the
// optional .env file and the environment.
func Load(opts ...LoadOption) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("registry.open_timeout", int(DefaultOpenTimeout/time.Second))
	v.SetDefault("registry.read_timeout", int(DefaultReadTimeout/time.Second))
	v.SetDefault("retry.attempts", DefaultRetryAttempts)
	v.SetDefault("retry.delay", DefaultRetryDelay.String())
	backend := CacheMemory
	if o.backend != "" {
		backend = o.backend
	}
	v.SetDefault("cache.backend", backend)
	v.SetDefault("cache.ttl", DefaultCacheTTL.String())
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.mongo_uri", "")
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("discovery_attempts", DefaultDiscoveryAttempts)
	v.SetDefault("features", "")

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config file %s", o.configFile)
		}
	}

	if o.dotEnv != "" {
		env, err := godotenv.Read(o.dotEnv)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", o.dotEnv)
		}
		applyDotEnv(v, env)
	}

	retryDelay, err := duration(v, "retry.delay")
	if err != nil {
		return nil, err
	}
	ttl, err := duration(v, "cache.ttl")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OpenTimeout:       time.Duration(v.GetInt("registry.open_timeout")) * time.Second,
		ReadTimeout:       time.Duration(v.GetInt("registry.read_timeout")) * time.Second,
		RetryAttempts:     v.GetInt("retry.attempts"),
		RetryDelay:        retryDelay,
		CacheBackend:      strings.ToLower(v.GetString("cache.backend")),
		CacheDir:          v.GetString("cache.dir"),
		CacheTTL:          ttl,
		CacheSize:         v.GetInt("cache.size"),
		RedisURL:          v.GetString("cache.redis_url"),
		MongoURI:          v.GetString("cache.mongo_uri"),
		UserAgent:         v.GetString("user_agent"),
		Concurrency:       v.GetInt("concurrency"),
		DiscoveryAttempts: v.GetInt("discovery_attempts"),
		Features:          features(v.Get("features")),
	}
	if err := v.UnmarshalKey("credentials", &cfg.Credentials); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode credentials")
	}
	cfg.WithDefaults()
	if cfg.CacheDir == "" && cfg.CacheBackend == CacheFile {
		if dir, err := DefaultCacheDir(); err == nil {
			cfg.CacheDir = dir
		}
	}
	return cfg, cfg.Validate()
}

// applyDotEnv feeds .env values for our prefix into v unless the real
// environment already sets them.
func applyDotEnv(v *viper.Viper, env map[string]string) {
	prefix := EnvPrefix + "_"
	for name, value := range env {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		if path, ok := envKeys[key]; ok {
			key = path
		}
		v.Set(key, value)
	}
}

// envKeys maps flattened environment names back to nested keys.
var envKeys = map[string]string{
	"registry_open_timeout": "registry.open_timeout",
	"registry_read_timeout": "registry.read_timeout",
	"retry_attempts":        "retry.attempts",
	"retry_delay":           "retry.delay",
	"cache_backend":         "cache.backend",
	"cache_ttl":             "cache.ttl",
	"cache_size":            "cache.size",
	"cache_dir":             "cache.dir",
	"cache_redis_url":       "cache.redis_url",
	"cache_mongo_uri":       "cache.mongo_uri",
}

// duration accepts Go duration strings ("90s") and bare integers as seconds.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	if n := v.GetInt(key); n > 0 && !strings.ContainsAny(raw, "hmsuµn") {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid duration for %s", key)
	}
	return d, nil
}

// features accepts a comma-separated string or a list.
func features(raw any) map[string]bool {
	out := map[string]bool{}
	var names []string
	switch x := raw.(type) {
	case string:
		names = strings.Split(x, ",")
	case []any:
		for _, n := range x {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
	case []string:
		names = x
	}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out[n] = true
		}
	}
	return out
}
