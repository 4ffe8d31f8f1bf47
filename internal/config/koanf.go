// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kinoteka/config.yaml",
	"/etc/kinoteka/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			Host:            "0.0.0.0",
			Timeout:         2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:       DriverDuckDB,
			Path:         "/data/kinoteka.duckdb",
			MaxMemory:    "512MB",
			Threads:      0,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			ConnLifetime: 5 * time.Minute,
		},
		Kinopoisk: KinopoiskConfig{
			BaseURL:               "https://api.kinopoisk.dev",
			Timeout:               5 * time.Second,
			ImportTimeout:         12 * time.Second,
			RefreshTimeout:        8 * time.Second,
			WebhookTimeout:        12 * time.Second,
			QueuedTimeout:         4 * time.Second,
			StaleAfter:            7 * 24 * time.Hour,
			RequestsPerSecond:     5,
			Burst:                 5,
			CircuitBreakerEnabled: true,
			PosterHosts:           []string{"*.kinopoisk.ru", "*.kpcdn.net", "image.openmoviedb.com"},
		},
		Telegram: TelegramConfig{
			AckMode: AckSync,
		},
		Ingest: IngestConfig{
			QueueBuffer: 64,
			Workers:     1,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, the optional YAML file and environment
// variables (highest priority), then validates.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"kinopoisk.poster_hosts",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":               "server.port",
	"http_host":               "server.host",
	"server_timeout":          "server.timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"environment":             "server.environment",

	// Database
	"database_driver":         "database.driver",
	"duckdb_path":             "database.path",
	"duckdb_max_memory":       "database.max_memory",
	"duckdb_threads":          "database.threads",
	"database_url":            "database.url",
	"database_max_open_conns": "database.max_open_conns",
	"database_max_idle_conns": "database.max_idle_conns",
	"database_conn_lifetime":  "database.conn_lifetime",

	// Kinopoisk
	"kinopoisk_api_key":                 "kinopoisk.api_key",
	"kinopoisk_base_url":                "kinopoisk.base_url",
	"kinopoisk_timeout":                 "kinopoisk.timeout",
	"kinopoisk_import_timeout":          "kinopoisk.import_timeout",
	"kinopoisk_refresh_timeout":         "kinopoisk.refresh_timeout",
	"kinopoisk_webhook_timeout":         "kinopoisk.webhook_timeout",
	"kinopoisk_queued_timeout":          "kinopoisk.queued_timeout",
	"kinopoisk_stale_after":             "kinopoisk.stale_after",
	"kinopoisk_requests_per_second":     "kinopoisk.requests_per_second",
	"kinopoisk_burst":                   "kinopoisk.burst",
	"kinopoisk_circuit_breaker_enabled": "kinopoisk.circuit_breaker_enabled",
	"kinopoisk_poster_hosts":            "kinopoisk.poster_hosts",

	// Telegram
	"telegram_webhook_secret": "telegram.webhook_secret",
	"telegram_ack_mode":       "telegram.ack_mode",

	// Ingest
	"ingest_queue_buffer": "ingest.queue_buffer",
	"ingest_workers":      "ingest.workers",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"rate_limit_disabled": "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unmapped variables so unrelated
// environment does not leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
