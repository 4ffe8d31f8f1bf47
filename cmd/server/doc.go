// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

/*
Package main is the entry point for the kinoteka server.

Kinoteka keeps a two-person movie watchlist fed from Kinopoisk links: links
arrive from a Telegram channel webhook or a bulk paste, metadata is fetched
from kinopoisk.dev, and a JSON API serves the list, ratings and watch state.

# Process layout

	RootSupervisor ("kinoteka")
	├── IngestSupervisor ("ingest-layer")
	│   └── RefreshWorkerService (telegram.ack_mode=async)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Startup order:

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB file, or PostgreSQL via pgx
 4. Kinopoisk client: circuit breaker and outbound rate limit
 5. Ingest: pipeline, plus the watermill refresh queue in async mode
 6. Catalog and chi router
 7. Supervisor tree

# Configuration

Common environment variables:

	KINOPOISK_API_KEY         kinopoisk.dev API key
	TELEGRAM_WEBHOOK_SECRET   secret_token registered with setWebhook
	TELEGRAM_ACK_MODE         sync (default) or async
	DATABASE_DRIVER           duckdb (default) or postgres
	DATABASE_PATH             DuckDB file path
	DATABASE_URL              PostgreSQL DSN

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests within server.shutdown_timeout, the refresh queue is
closed and the database is checkpointed and closed.
*/
package main
