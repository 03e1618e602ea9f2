// Package config loads service settings from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bookshelf/src/internal/cache"
)

// Config is the resolved configuration for serve and the CLI commands.
type Config struct {
	Listen     string `yaml:"listen"`
	AdminToken string `yaml:"admin_token"`
	DataDir    string `yaml:"data_dir"`
	LogLevel   string `yaml:"log_level"`

	Cache     CacheConfig     `yaml:"cache"`
	Fetch     FetchConfig     `yaml:"fetch"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Feedbin   FeedbinConfig   `yaml:"feedbin"`
	Publish   PublishConfig   `yaml:"publish"`
}

type CacheConfig struct {
	Kind string `yaml:"kind"`
	Path string     `yaml:"path"`
}

type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	ResolveHosts bool          `yaml:"resolve_hosts"`
}

type WordPressConfig struct {
	RootURL string `yaml:"root_url"`
}

type FeedbinConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PublishConfig enables committing new books to the git checkout holding
// DataDir.
type PublishConfig struct {
	Git  bool   `yaml:"git"`
	Repo string `yaml:"repo"`
	Push bool   `yaml:"push"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Listen:   ":8080",
		DataDir:  filepath.Join("data", "books"),
		LogLevel: "info",
		Cache:    CacheConfig{Kind: cache.KindMemory},
		Fetch:    FetchConfig{Timeout: 10 * time.Second, ResolveHosts: true},
	}
}

// getEnv returns the environment value for key or def if unset.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads path (when non-empty and present) over the defaults and then
// applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("invalid config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.Listen = getEnv("SHELF_LISTEN", c.Listen)
	c.AdminToken = getEnv("ADMIN_TOKEN", c.AdminToken)
	c.DataDir = getEnv("SHELF_DATA_DIR", c.DataDir)
	c.LogLevel = getEnv("SHELF_LOG_LEVEL", c.LogLevel)
	c.Cache.Kind = getEnv("SHELF_CACHE_KIND", c.Cache.Kind)
	c.Cache.Path = getEnv("SHELF_CACHE_PATH", c.Cache.Path)
	c.WordPress.RootURL = getEnv("WP_ROOT_URL", c.WordPress.RootURL)
	c.Feedbin.Username = getEnv("FEEDBIN_USERNAME", c.Feedbin.Username)
	c.Feedbin.Password = getEnv("FEEDBIN_PASSWORD", c.Feedbin.Password)
	if v := os.Getenv("SHELF_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHELF_FETCH_TIMEOUT: %w", err)
		}
		c.Fetch.Timeout = d
	}
	if v := os.Getenv("SHELF_PUBLISH_GIT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SHELF_PUBLISH_GIT: %w", err)
		}
		c.Publish.Git = b
	}
	return nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Cache.Kind)) {
	case "", cache.KindMemory:
	case cache.KindFile, cache.KindSQLite:
		if strings.TrimSpace(c.Cache.Path) == "" {
			return fmt.Errorf("cache.path is required for %s cache", c.Cache.Kind)
		}
	default:
		return fmt.Errorf("unknown cache kind %q", c.Cache.Kind)
	}
	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch.timeout must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// PublishRepo is the git checkout to commit into; it defaults to DataDir.
func (c Config) PublishRepo() string {
	if c.Publish.Repo != "" {
		return c.Publish.Repo
	}
	return c.DataDir
}
