// Package config loads bubblechart settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/bubblechart/config.toml (or
// ~/.config/bubblechart/config.toml) unless --config names another one.
// Values from the file become flag defaults; flags given on the command
// line win. A few settings can also come from the environment:
//
//	BUBBLECHART_REDIS_ADDR   cache.redis_addr
//	BUBBLECHART_MONGO_URI    mongo.uri
//
// Example:
//
//	[render]
//	policy = "force"
//	width = 1200
//	height = 800
//	formats = ["svg", "png"]
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	layout_ttl = "24h"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Environment variables read by [Load].
const (
	EnvRedisAddr = "BUBBLECHART_REDIS_ADDR"
	EnvMongoURI  = "BUBBLECHART_MONGO_URI"
)

// Config is the full configuration file.
type Config struct {
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Mongo  MongoConfig  `toml:"mongo"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// RenderConfig holds defaults for the render, layout and simulate commands.
// Zero values leave the pipeline defaults in place.
type RenderConfig struct {
	VizType string   `toml:"viz_type"`
	Policy  string   `toml:"policy"`
	Width   float64  `toml:"width"`
	Height  float64  `toml:"height"`
	Padding float64  `toml:"padding"`
	Seed    uint64   `toml:"seed"`
	Formats []string `toml:"formats"`
	Style   string   `toml:"style"`
	NoGrid  bool     `toml:"no_grid"`
	Scale   float64  `toml:"scale"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	RedisPrefix   string        `toml:"redis_prefix"`
	LayoutTTL     time.Duration `toml:"layout_ttl"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr          string        `toml:"addr"`
	Metrics       bool          `toml:"metrics"`
	FrameInterval time.Duration `toml:"frame_interval"`
	FrameBuffer   int           `toml:"frame_buffer"`
	// Retention is how long a finished simulation's final event stays
	// available before its surface is released.
	Retention time.Duration `toml:"retention"`
}

// MongoConfig configures MongoDB sources and the layout store.
type MongoConfig struct {
	URI              string `toml:"uri"`
	Database         string `toml:"database"`
	Collection       string `toml:"collection"`
	LayoutCollection string `toml:"layout_collection"`
	// StoreLayouts persists computed layouts in LayoutCollection.
	StoreLayouts bool `toml:"store_layouts"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache: CacheConfig{Backend: BackendFile},
		Server: ServerConfig{
			Addr:          ":8080",
			Metrics:       true,
			FrameInterval: 16 * time.Millisecond,
			FrameBuffer:   32,
			Retention:     5 * time.Minute,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/bubblechart/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "bubblechart", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "bubblechart", "config.toml"), nil
}

// Load reads the configuration at path. An empty path reads the default
// location, where a missing file is not an error. Environment overrides are
// applied last.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		cfg.Path = path
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		cfg = Default()
	default:
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// Parse decodes configuration from TOML text, for tests and embedding.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
		if c.Cache.Backend == "" || c.Cache.Backend == BackendFile {
			c.Cache.Backend = BackendRedis
		}
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Mongo.URI = v
	}
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	backends := []string{BackendFile, BackendRedis, BackendNone}
	if c.Cache.Backend != "" && !slices.Contains(backends, c.Cache.Backend) {
		return fmt.Errorf("cache.backend: %q (must be one of: %s)", c.Cache.Backend, strings.Join(backends, ", "))
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	if c.Mongo.StoreLayouts && c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required when mongo.store_layouts is set")
	}
	if c.Render.Width < 0 || c.Render.Height < 0 {
		return fmt.Errorf("render.width and render.height must not be negative")
	}
	return nil
}

// Write encodes c as TOML to path, creating parent directories.
func Write(c Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
