// Package config loads rubyline configuration.
//
// Precedence, highest first: command-line flags, RUBYLINE_* environment
// variables, the optional TOML config file, compiled defaults. A missing
// config file is not an error; a malformed one is.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	rerrors "github.com/rubyline/rubyline/pkg/errors"
	"github.com/rubyline/rubyline/pkg/integrations/rubycache"
)

const appName = "rubyline"

// Cache backend names accepted in configuration.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config holds all rubyline settings.
type Config struct {
	// BaseURL is the upstream release mirror.
	BaseURL string `toml:"base_url"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig controls the HTTP response cache.
type CacheConfig struct {
	Backend   string `toml:"backend"`    // "file", "redis", or "none"
	Dir       string `toml:"dir"`        // file backend directory ("" = default)
	TTLHours  int    `toml:"ttl_hours"`  // entry lifetime; 0 = no expiration
	RedisAddr string `toml:"redis_addr"` // redis backend address
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		BaseURL: rubycache.DefaultBaseURL,
		Cache: CacheConfig{
			Backend:   BackendFile,
			TTLHours:  24,
			RedisAddr: "localhost:6379",
		},
	}
}

// Load reads configuration from path, falling back to the default location
// when path is empty, then applies RUBYLINE_* environment overrides.
//
// A missing file yields defaults plus env overrides. A file that exists but
// does not parse, or a result that fails validation, is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !os.IsNotExist(err) {
			return Config{}, rerrors.Wrap(rerrors.ErrCodeInvalidConfig, err, "load config %s", path)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns the default config file location,
// honoring XDG_CONFIG_HOME.
func DefaultPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// DefaultCacheDir returns the cache directory using the XDG standard
// (~/.cache/rubyline/).
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

func (c *Config) applyEnv() {
	if v := os.Getenv("RUBYLINE_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("RUBYLINE_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("RUBYLINE_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("RUBYLINE_CACHE_TTL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.Cache.TTLHours = hours
		}
	}
	if v := os.Getenv("RUBYLINE_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := rerrors.ValidateBaseURL(c.BaseURL); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return rerrors.New(rerrors.ErrCodeInvalidConfig,
			"unknown cache backend %q (want %q, %q, or %q)",
			c.Cache.Backend, BackendFile, BackendRedis, BackendNone)
	}
	if c.Cache.TTLHours < 0 {
		return rerrors.New(rerrors.ErrCodeInvalidConfig, "cache ttl_hours cannot be negative")
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return rerrors.New(rerrors.ErrCodeInvalidConfig, "redis backend requires redis_addr")
	}
	return nil
}

// TTL returns the cache TTL as a duration.
func (c Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}
