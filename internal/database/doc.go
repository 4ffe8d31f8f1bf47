// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

// Package database is the persistence layer for movies, ratings and
// Telegram posts.
//
// # Drivers
//
// Two database/sql drivers are supported and selected by
// database.driver:
//   - duckdb (default): embedded file database via github.com/duckdb/duckdb-go/v2
//   - postgres: server database via the github.com/jackc/pgx/v5 stdlib driver
//
// All SQL uses $n placeholders and types understood by both engines.
// Timestamps are stored as TIMESTAMP in UTC at microsecond precision.
// Genre, country and cast lists are stored as JSON text.
//
// # Files
//
//   - database.go: open, pool configuration, ping, close
//   - schema.go: table bootstrap
//   - crud_movies.go: movie upsert, metadata writes, state patches, views
//   - crud_ratings.go: per-rater rating upsert
//   - crud_posts.go: idempotent Telegram post insert
//   - scan.go: row scanning and JSON list columns
//   - errors.go: sentinel errors, retry and close helpers
//
// # Concurrency
//
// Identity is enforced by UNIQUE constraints and every write is an
// INSERT ... ON CONFLICT. There is no in-process locking; concurrent
// duplicates collapse onto one row. DuckDB transaction conflicts are
// retried with a short backoff.
//
// # Referential integrity
//
// No FOREIGN KEY constraints are declared: DuckDB rejects updates to rows
// referenced by a foreign key. Movie existence is checked before a rating
// is written, and movies are never deleted.
package database
