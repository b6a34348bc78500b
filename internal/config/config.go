// Package config defines service configuration and its layered loader.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Supported repository backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory attribution queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of attribution workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the submission idempotency set.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /events/{id}/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Store selects the repository backend: memory or redis.
	Store string `koanf:"store"`

	// RedisURL is a redis:// URL, required when Store is redis.
	RedisURL string `koanf:"redis_url"`

	// RedisPrefix namespaces every key written to Redis.
	RedisPrefix string `koanf:"redis_prefix"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 500,
		Store:               StoreMemory,
		RedisPrefix:         "liftboard",
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("%w: redis_url is required for the redis store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	return nil
}
