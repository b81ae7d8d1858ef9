// Package config loads the tracker's settings from the environment
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is every setting the server reads. Cobra flags override the
// environment.
type Config struct {
	GRPCPort int `env:"RPG_TRACKER_GRPC_PORT" envDefault:"50051"`

	Store      string `env:"RPG_TRACKER_STORE" envDefault:"memory"`
	RedisAddr  string `env:"RPG_TRACKER_REDIS_ADDR" envDefault:"localhost:6379"`
	SQLitePath string `env:"RPG_TRACKER_SQLITE_PATH" envDefault:"rpg-tracker.db"`

	DnD5eBaseURL  string        `env:"RPG_TRACKER_DND5E_BASE_URL" envDefault:"https://www.dnd5eapi.co/api/2014/"`
	DnD5eCacheTTL time.Duration `env:"RPG_TRACKER_DND5E_CACHE_TTL" envDefault:"24h"`

	// MetricsAddr is where /metrics is served. Empty disables it.
	MetricsAddr string `env:"RPG_TRACKER_METRICS_ADDR" envDefault:":9090"`

	LogLevel  string `env:"RPG_TRACKER_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"RPG_TRACKER_LOG_FORMAT" envDefault:"text"`

	// ProgressionsFile is an optional YAML file of homebrew slot progressions
	ProgressionsFile string `env:"RPG_TRACKER_PROGRESSIONS_FILE"`
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config is required")
	}
	vb := errors.NewValidationBuilder()

	errors.ValidateRange("grpc_port", c.GRPCPort, 1, 65535, vb)
	errors.ValidateEnum("store", c.Store, []string{StoreMemory, StoreRedis, StoreSQLite}, vb)
	if c.Store == StoreRedis {
		errors.ValidateRequired("redis_addr", c.RedisAddr, vb)
	}
	if c.Store == StoreSQLite {
		errors.ValidateRequired("sqlite_path", c.SQLitePath, vb)
	}
	if c.DnD5eCacheTTL < 0 {
		vb.Field("dnd5e_cache_ttl", "must not be negative")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		vb.Field("log_level", err.Error())
	}
	errors.ValidateEnum("log_format", c.LogFormat, []string{LogFormatText, LogFormatJSON}, vb)

	return vb.Build()
}

// Logger builds the slog logger the settings describe
func (c *Config) Logger() *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}
