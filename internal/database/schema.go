// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id               TEXT PRIMARY KEY,
		kinopoisk_id     BIGINT NOT NULL,
		media_type       TEXT NOT NULL,
		title_ru         TEXT,
		title_original   TEXT,
		release_year     INTEGER,
		duration_minutes INTEGER,
		description      TEXT,
		poster_url       TEXT,
		genres           TEXT NOT NULL DEFAULT '[]',
		countries        TEXT NOT NULL DEFAULT '[]',
		cast_members     TEXT NOT NULL DEFAULT '[]',
		rating_kinopoisk DOUBLE PRECISION,
		status           TEXT NOT NULL DEFAULT 'queued',
		watched_at       TIMESTAMP,
		details_status   TEXT NOT NULL DEFAULT 'pending',
		last_fetched_at  TIMESTAMP,
		created_at       TIMESTAMP NOT NULL,
		updated_at       TIMESTAMP NOT NULL,
		UNIQUE (kinopoisk_id, media_type)
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id         TEXT PRIMARY KEY,
		movie_id   TEXT NOT NULL REFERENCES movies (id),
		user_key   TEXT NOT NULL,
		rating     INTEGER,
		comment    TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (movie_id, user_key)
	)`,
	`CREATE TABLE IF NOT EXISTS telegram_posts (
		id            TEXT PRIMARY KEY,
		chat_id       TEXT NOT NULL,
		message_id    TEXT NOT NULL,
		posted_at     TIMESTAMP NOT NULL,
		original_text TEXT,
		movie_id      TEXT NOT NULL REFERENCES movies (id),
		created_at    TIMESTAMP NOT NULL,
		UNIQUE (chat_id, message_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_telegram_posts_movie ON telegram_posts (movie_id)`,
}

// createTables bootstraps the schema. Every statement is idempotent.
func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
