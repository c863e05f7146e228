// Package config loads the waterfall configuration file.
//
// The file is TOML. Every setting has a default, taken from the embedded
// example file, so a configuration file only needs the values it changes.
// Defaults are merged once, at load time.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/waterfall/pkg/blobcache"
	werrors "github.com/matzehuels/waterfall/pkg/errors"
	"github.com/matzehuels/waterfall/pkg/layout"
)

//go:embed config.example.toml
var exampleConf []byte

// TokenEnv overrides [APIConfig.Token] when set.
const TokenEnv = "WATERFALL_API_TOKEN"

// Config is the complete configuration.
type Config struct {
	API    APIConfig      `toml:"api"`
	Cache  CacheConfig    `toml:"cache"`
	Layout layout.Options `toml:"layout"`
	Server ServerConfig   `toml:"server"`
}

// APIConfig configures the photo service client.
type APIConfig struct {
	BaseURL     string        `toml:"base_url"`
	Token       string        `toml:"token"`
	Timeout     time.Duration `toml:"timeout"`
	BulkTimeout time.Duration `toml:"bulk_timeout"`
	RateLimit   float64       `toml:"rate_limit"`
	Burst       int           `toml:"burst"`
	Retries     int           `toml:"retries"`
	PageSize    int           `toml:"page_size"`
}

// CacheConfig selects the blob store and tunes the metadata cache.
type CacheConfig struct {
	blobcache.Options
	MetaTTL           time.Duration `toml:"meta_ttl"`
	LookupConcurrency int           `toml:"lookup_concurrency"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Items string `toml:"items"`
}

// Default returns the configuration defined by the embedded example file.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("parse embedded default config: %v", err))
	}
	return &cfg
}

// Load reads the file at path over the defaults. A missing file is not an
// error when path is the default location; the defaults are returned.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return nil, fmt.Errorf("load config %s: %w", path, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
		}
	}

	if tok := os.Getenv(TokenEnv); tok != "" {
		cfg.API.Token = tok
	}
	cfg.Layout = cfg.Layout.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if err := werrors.ValidateURL(c.API.BaseURL); err != nil {
		errs = append(errs, werrors.Wrap(werrors.ErrCodeInvalidConfig, err, "api.base_url"))
	}
	if c.API.Timeout < 0 || c.API.BulkTimeout < 0 {
		errs = append(errs, errors.New("api timeouts must not be negative"))
	}
	if c.API.PageSize < 0 {
		errs = append(errs, errors.New("api.page_size must not be negative"))
	}
	switch c.Cache.Backend {
	case "", blobcache.BackendBadger, blobcache.BackendRedis, blobcache.BackendMongo, blobcache.BackendNone:
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of badger, redis, mongo, none", c.Cache.Backend))
	}
	if err := c.Layout.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BlobDir returns the badger directory, defaulting to
// $XDG_CACHE_HOME/waterfall/blobs.
func (c *Config) BlobDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := cacheHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "waterfall", "blobs"), nil
}

// DefaultPath returns $XDG_CONFIG_HOME/waterfall/config.toml, falling back
// to ~/.config/waterfall/config.toml.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "waterfall", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "waterfall", "config.toml"), nil
}

func cacheHome() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache"), nil
}

// WriteExample writes the commented example configuration to path. It
// refuses to overwrite an existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, exampleConf, 0o644)
}
