// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

// Package config loads kinoteka configuration.
//
// Values are layered with koanf: built-in defaults, then an optional YAML
// file (config.yaml, or the path in CONFIG_PATH), then environment
// variables. Environment variable names are mapped explicitly in
// envTransformFunc; anything not listed there is ignored.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Invalid configuration")
//	}
//
// A missing Kinopoisk API key or Telegram webhook secret does not fail
// loading. The fetcher then returns no data and the webhook refuses every
// call, which is how the app behaves while it is being set up.
package config

import (
	"fmt"
	"time"
)

// Database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Webhook acknowledgement modes.
const (
	// AckSync fetches metadata before answering Telegram.
	AckSync = "sync"
	// AckAsync answers immediately and queues the fetch.
	AckAsync = "async"
)

// Config is the root configuration object.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Kinopoisk KinopoiskConfig `koanf:"kinopoisk"`
	Telegram  TelegramConfig  `koanf:"telegram"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`          // read/write timeout; must exceed the longest fetch timeout
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"` // graceful drain window
	Environment     string        `koanf:"environment"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and tunes the persistence driver.
type DatabaseConfig struct {
	Driver       string        `koanf:"driver"` // duckdb | postgres
	Path         string        `koanf:"path"`   // DuckDB file, ":memory:" for tests
	URL          string        `koanf:"url"`    // PostgreSQL DSN
	MaxMemory    string        `koanf:"max_memory"`
	Threads      int           `koanf:"threads"` // DuckDB threads (0 = NumCPU)
	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns"`
	ConnLifetime time.Duration `koanf:"conn_lifetime"`
}

// KinopoiskConfig configures the metadata API client.
type KinopoiskConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`

	// Per call-site fetch timeouts.
	Timeout        time.Duration `koanf:"timeout"`
	ImportTimeout  time.Duration `koanf:"import_timeout"`
	RefreshTimeout time.Duration `koanf:"refresh_timeout"`
	WebhookTimeout time.Duration `koanf:"webhook_timeout"`
	QueuedTimeout  time.Duration `koanf:"queued_timeout"`

	// StaleAfter is the age after which fetched metadata is fetched again.
	StaleAfter time.Duration `koanf:"stale_after"`

	// Outbound token bucket. RequestsPerSecond <= 0 disables limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	CircuitBreakerEnabled bool `koanf:"circuit_breaker_enabled"`

	// PosterHosts lists hosts the UI may load poster images from. A leading
	// "*." matches any subdomain.
	PosterHosts []string `koanf:"poster_hosts"`
}

// TelegramConfig configures the channel-post webhook.
type TelegramConfig struct {
	WebhookSecret string `koanf:"webhook_secret"`
	AckMode       string `koanf:"ack_mode"` // sync | async
}

// IngestConfig tunes the background refresh queue used in async ack mode.
type IngestConfig struct {
	QueueBuffer int `koanf:"queue_buffer"`
	Workers     int `koanf:"workers"`
}

// SecurityConfig holds CORS and inbound rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, file and environment, and
// validates the result.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
