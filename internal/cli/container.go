package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/matzehuels/updatecheck/pkg/buildinfo"
	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/config"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/policy"
)

// invoke builds the dependency container for one command run and calls fn
// with its arguments resolved from it. Caches opened on the way are closed
// when fn returns.
func (c *CLI) invoke(cmd *cobra.Command, fn any) error {
	var opened []cache.Cache
	ct := dig.New()
	if err := c.registerProviders(cmd.Context(), ct, &opened); err != nil {
		return err
	}
	defer func() {
		for _, ch := range opened {
			if err := ch.Close(); err != nil {
				c.Logger.Debug("close cache", "err", err)
			}
		}
	}()
	if err := ct.Invoke(fn); err != nil {
		return dig.RootCause(err)
	}
	return nil
}

// registerProviders wires config -> logger -> cache -> policy -> options.
func (c *CLI) registerProviders(ctx context.Context, ct *dig.Container, opened *[]cache.Cache) error {
	providers := []any{
		c.loadConfig,
		func() *log.Logger { return loggerFromContext(ctx) },
		func(cfg *config.Config) (cache.Cache, error) {
			ch, err := openCache(ctx, cfg, c.noCache)
			if err == nil {
				*opened = append(*opened, ch)
			}
			return ch, err
		},
		c.loadPolicy,
		c.newOptions,
	}
	for _, p := range providers {
		if err := ct.Provide(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(
		config.WithConfigFile(c.configFile),
		config.WithDotEnv(c.envFile),
		config.WithCacheBackend(config.CacheFile),
	)
	if err != nil {
		return nil, err
	}
	if cfg.UserAgent == config.DefaultUserAgent {
		cfg.UserAgent = buildinfo.UserAgent() + " (+https://github.com/matzehuels/updatecheck)"
	}
	c.Logger.Debug("configuration loaded", "cache", cfg.CacheBackend, "concurrency", cfg.Concurrency)
	return cfg, nil
}

// loadPolicy returns nil when no policy file is configured.
func (c *CLI) loadPolicy() (*policy.File, error) {
	if c.policyFile == "" {
		return nil, nil
	}
	return policy.LoadFile(c.policyFile)
}

type optionsIn struct {
	dig.In

	Config *config.Config
	Cache  cache.Cache
	Logger *log.Logger
	Policy *policy.File
}

func (c *CLI) newOptions(in optionsIn) deps.Options {
	return deps.Options{
		Config:  in.Config,
		Cache:   in.Cache,
		Keyer:   cache.NewDefaultKeyer(),
		Logger:  in.Logger,
		Refresh: c.refresh,
		Policy:  in.Policy,
	}
}

// openCache opens the configured cache backend.
func openCache(ctx context.Context, cfg *config.Config, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	switch cfg.CacheBackend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		return cache.NewMemoryCache(cfg.CacheSize)
	case config.CacheFile:
		dir := cfg.CacheDir
		if dir == "" {
			d, err := config.DefaultCacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.RedisURL)
	case config.CacheMongo:
		return cache.NewMongoCache(ctx, cfg.MongoURI)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", cfg.CacheBackend)
}
