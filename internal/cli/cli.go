// Package cli implements the rubyline command-line interface.
//
// This package provides commands for emitting the latest-Ruby-per-minor-line
// catalog, serving it over HTTP, and managing the HTTP response cache. The
// CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - latest: Fetch the release index and print the catalog as JSON
//   - serve: Expose the catalog over HTTP for polling pipelines
//   - cache: Manage the HTTP response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context; diagnostic output goes to stderr, never
// stdout, so the JSON payload stays machine-readable on a pipe.
package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rubyline/rubyline/internal/config"
	"github.com/rubyline/rubyline/pkg/buildinfo"
	"github.com/rubyline/rubyline/pkg/cache"
)

// Execute runs the rubyline CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (latest,
// serve, cache), loads configuration, and configures logging based on the
// --verbose flag. The logger and the loaded configuration are attached to
// the command context.
func Execute(ctx context.Context) error {
	var (
		verbose bool
		cfgPath string
	)

	root := &cobra.Command{
		Use:          "rubyline",
		Short:        "rubyline reports the latest Ruby release per minor version line",
		Long:         `rubyline fetches the published Ruby release index, groups releases by minor version line, and emits a JSON document with each line's latest release, download URLs, and SHA-256 checksums.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(os.Stderr, level).With("run", runID())

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			cctx := withLogger(cmd.Context(), logger)
			cctx = withConfig(cctx, cfg)
			cmd.SetContext(cctx)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/rubyline/config.toml)")

	root.AddCommand(newLatestCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}

// withConfig returns a new context with the loaded configuration attached.
func withConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// configFromContext retrieves the configuration from ctx, falling back to
// defaults if command setup did not run (direct RunE calls in tests).
func configFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey).(config.Config); ok {
		return cfg
	}
	return config.Default()
}

// newCacheBackend constructs the configured cache backend.
// noCache forces the null backend regardless of configuration.
func newCacheBackend(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr)
	default:
		dir := cfg.Cache.Dir
		if dir == "" {
			d, err := config.DefaultCacheDir()
			if err != nil {
				// No usable home directory: run uncached rather than fail.
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
}
