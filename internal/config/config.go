package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/cpctree/internal/export"
)

type Config struct {
	// Build output
	Output  string
	Format  string
	Workers int

	// HTTP server
	Port   string
	APIKey string

	// Logging
	LogLevel  string
	LogFormat string

	// Rolling window for build latency stats
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Output:  envOr("CPCTREE_OUTPUT", "cpc_tree.json"),
		Format:  envOr("CPCTREE_FORMAT", "json"),
		Workers: envInt("CPCTREE_WORKERS", 1),

		Port:   envOr("PORT", "8090"),
		APIKey: os.Getenv("CPCTREE_API_KEY"),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),

		StatsWindow: envDuration("CPCTREE_STATS_WINDOW", 1*time.Hour),
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("CPCTREE_OUTPUT must not be empty")
	}
	if _, err := export.ForFormat(c.Format); err != nil {
		return fmt.Errorf("CPCTREE_FORMAT: %w", err)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("CPCTREE_WORKERS must be positive, got %d", c.Workers)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT %q is not a number", c.Port)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT %q must be json or text", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
