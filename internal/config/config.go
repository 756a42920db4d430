// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/primer-go/internal/layout"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Env        string `env:"PRIMER_ENV" envDefault:"development"`
	LogLevel   string `env:"PRIMER_LOG_LEVEL" envDefault:"info"`
	DBPath     string `env:"PRIMER_DB_PATH" envDefault:"./data/primer.db"`
	ServerHost string `env:"PRIMER_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"PRIMER_SERVER_PORT" envDefault:"8080"`

	// Asset URLs
	ScriptDebug   bool   `env:"PRIMER_SCRIPT_DEBUG" envDefault:"false"`
	TemplateURI   string `env:"PRIMER_TEMPLATE_URI" envDefault:"/themes/primer"`
	StylesheetURI string `env:"PRIMER_STYLESHEET_URI" envDefault:"/themes/primer/style.css"`
	IncludesURI   string `env:"PRIMER_INCLUDES_URI" envDefault:"/includes"`

	DefaultLayout string `env:"PRIMER_DEFAULT_LAYOUT" envDefault:"two-column-default"`
	Locale        string `env:"PRIMER_LOCALE" envDefault:"en"`
	OverridesPath string `env:"PRIMER_OVERRIDES_PATH"` // Optional YAML theme overrides

	// Cache configuration. RedisURL is optional; the memory cache is used without it.
	// CacheTTL is in seconds.
	RedisURL     string `env:"PRIMER_REDIS_URL"`
	CachePrefix  string `env:"PRIMER_CACHE_PREFIX" envDefault:"primer:"`
	CacheTTL     int    `env:"PRIMER_CACHE_TTL" envDefault:"3600"`
	CacheMaxSize int    `env:"PRIMER_CACHE_MAX_SIZE" envDefault:"10000"`

	// Stored WARN+ events older than this are pruned daily; 0 keeps them.
	EventRetentionDays int `env:"PRIMER_EVENT_RETENTION_DAYS" envDefault:"30"`

	// Per-client limit on the write API, in requests per second.
	APIRateLimit float64 `env:"PRIMER_API_RATE_LIMIT" envDefault:"5"`
	APIRateBurst int     `env:"PRIMER_API_RATE_BURST" envDefault:"10"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// EventRetention returns EventRetentionDays as a duration.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// Layout returns the parsed default layout. Load has already validated it.
func (c Config) Layout() layout.Variant {
	v, _ := layout.ParseVariant(c.DefaultLayout)
	return v
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if _, ok := layout.ParseVariant(cfg.DefaultLayout); !ok {
		return nil, fmt.Errorf("PRIMER_DEFAULT_LAYOUT %q is not a known layout", cfg.DefaultLayout)
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("PRIMER_SERVER_PORT %d is out of range", cfg.ServerPort)
	}
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("PRIMER_CACHE_TTL must not be negative, got %d", cfg.CacheTTL)
	}
	if cfg.EventRetentionDays < 0 {
		return nil, fmt.Errorf("PRIMER_EVENT_RETENTION_DAYS must not be negative, got %d", cfg.EventRetentionDays)
	}
	if cfg.APIRateLimit <= 0 || cfg.APIRateBurst <= 0 {
		return nil, fmt.Errorf("PRIMER_API_RATE_LIMIT and PRIMER_API_RATE_BURST must be positive")
	}
	cfg.TemplateURI = strings.TrimSuffix(cfg.TemplateURI, "/")
	cfg.IncludesURI = strings.TrimSuffix(cfg.IncludesURI, "/")

	return cfg, nil
}
