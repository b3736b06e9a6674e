// Package config loads server configuration from a TOML file.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alexkibler/sticker-nester/pkg/errors"
	"github.com/alexkibler/sticker-nester/pkg/job"
	"github.com/alexkibler/sticker-nester/pkg/nest"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Jobs   JobsConfig   `toml:"jobs"`
	Store  StoreConfig  `toml:"store"`
	Engine EngineConfig `toml:"engine"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address (host:port).
	Addr string `toml:"addr"`
}

// JobsConfig configures the asynchronous job controller.
type JobsConfig struct {
	// AsyncThreshold is the request complexity above which packing runs
	// as a background job.
	AsyncThreshold float64 `toml:"async_threshold"`

	// TTL is how long finished job records stay retrievable.
	TTL duration `toml:"ttl"`

	// Timeout bounds a single packing run.
	Timeout duration `toml:"timeout"`

	// CleanupInterval is how often expired records are purged.
	CleanupInterval duration `toml:"cleanup_interval"`
}

// StoreConfig selects the job storage backend.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend string `toml:"backend"`

	// Redis settings, used when Backend is "redis".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// EngineConfig holds packing defaults applied when a request omits them.
type EngineConfig struct {
	Spacing      float64 `toml:"spacing"`
	CellsPerUnit float64 `toml:"cells_per_unit"`
	StepSize     float64 `toml:"step_size"`
}

// duration wraps time.Duration with TOML string decoding ("5m", "1h").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Jobs: JobsConfig{
			AsyncThreshold:  job.DefaultAsyncThreshold,
			TTL:             duration{job.DefaultTTL},
			Timeout:         duration{job.DefaultTimeout},
			CleanupInterval: duration{5 * time.Minute},
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Engine: EngineConfig{
			Spacing:      nest.DefaultSpacing,
			CellsPerUnit: nest.DefaultCellsPerUnit,
			StepSize:     nest.DefaultStepSize,
		},
	}
}

// Load reads a TOML config file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		cfg.applyEnv()
		return cfg, cfg.validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to read config file %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to parse config file %s", path)
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

// applyEnv overlays address settings from the environment, so deployments
// can point at their listener and Redis without editing the config file.
func (c *Config) applyEnv() {
	if addr := os.Getenv("NESTER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if addr := os.Getenv("NESTER_REDIS_ADDR"); addr != "" {
		c.Store.RedisAddr = addr
	}
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q (want memory or redis)", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Store.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "redis backend requires redis_addr")
	}
	if c.Jobs.AsyncThreshold < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "async_threshold must not be negative")
	}
	if c.Engine.Spacing < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "spacing must not be negative")
	}
	return nil
}
