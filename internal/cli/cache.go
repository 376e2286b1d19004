package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/config"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the registry response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached registry responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.invoke(cmd, func(cfg *config.Config, ch cache.Cache) error {
				clearer, ok := ch.(cache.Clearer)
				if !ok {
					printInfo("Cache backend %s holds nothing to clear", cfg.CacheBackend)
					return nil
				}
				n, err := clearer.Clear(cmd.Context())
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "clear cache")
				}
				if n == 0 {
					printInfo("Cache is empty")
					return nil
				}
				printSuccess("Cleared %d cached entries", n)
				printDetail("Backend: %s", cacheLocation(cfg))
				return nil
			})
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where cached responses are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.invoke(cmd, func(cfg *config.Config) error {
				fmt.Println(cacheLocation(cfg))
				return nil
			})
		},
	}
}

// cacheLocation describes the configured backend: a directory for the file
// cache, the backend name otherwise.
func cacheLocation(cfg *config.Config) string {
	if cfg.CacheBackend != config.CacheFile {
		return cfg.CacheBackend
	}
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	dir, err := config.DefaultCacheDir()
	if err != nil {
		return config.CacheFile
	}
	return dir
}
