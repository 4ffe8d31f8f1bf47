// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateKinopoisk(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverDuckDB, DriverPostgres, c.Database.Driver)
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database connection limits must not be negative")
	}
	return nil
}

func (c *Config) validateKinopoisk() error {
	if err := validateHTTPURL(c.Kinopoisk.BaseURL, "KINOPOISK_BASE_URL"); err != nil {
		return err
	}

	timeouts := []struct {
		name     string
		d        time.Duration
		inServer bool // runs inside an HTTP request
	}{
		{"KINOPOISK_TIMEOUT", c.Kinopoisk.Timeout, false},
		{"KINOPOISK_IMPORT_TIMEOUT", c.Kinopoisk.ImportTimeout, true},
		{"KINOPOISK_REFRESH_TIMEOUT", c.Kinopoisk.RefreshTimeout, true},
		{"KINOPOISK_WEBHOOK_TIMEOUT", c.Kinopoisk.WebhookTimeout, true},
		{"KINOPOISK_QUEUED_TIMEOUT", c.Kinopoisk.QueuedTimeout, false},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", t.name, t.d)
		}
		if t.inServer && t.d >= c.Server.Timeout {
			return fmt.Errorf("SERVER_TIMEOUT (%v) must exceed %s (%v)", c.Server.Timeout, t.name, t.d)
		}
	}

	if c.Kinopoisk.StaleAfter <= 0 {
		return fmt.Errorf("KINOPOISK_STALE_AFTER must be positive, got %v", c.Kinopoisk.StaleAfter)
	}
	if c.Kinopoisk.RequestsPerSecond > 0 && c.Kinopoisk.Burst < 1 {
		return fmt.Errorf("KINOPOISK_BURST must be at least 1 when rate limiting is enabled")
	}
	for _, h := range c.Kinopoisk.PosterHosts {
		if strings.ContainsAny(h, "/:") {
			return fmt.Errorf("KINOPOISK_POSTER_HOSTS entries must be bare hostnames, got %q", h)
		}
	}
	return nil
}

func (c *Config) validateTelegram() error {
	switch c.Telegram.AckMode {
	case AckSync, AckAsync:
		return nil
	default:
		return fmt.Errorf("TELEGRAM_ACK_MODE must be %q or %q, got %q", AckSync, AckAsync, c.Telegram.AckMode)
	}
}

func (c *Config) validateIngest() error {
	if c.Ingest.QueueBuffer < 1 {
		return fmt.Errorf("INGEST_QUEUE_BUFFER must be at least 1")
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("INGEST_WORKERS must be at least 1")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
