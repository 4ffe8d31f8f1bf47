// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kinoteka/internal/models"
)

// InsertPost records a Telegram post once per (chat, message). A redelivered
// post is left untouched; the stored row is returned along with whether this
// call created it.
func (db *DB) InsertPost(ctx context.Context, p *models.Post) (*models.Post, bool, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	id := uuid.NewString()
	start := time.Now()
	err := withRetry(ctx, func() error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO telegram_posts (id, chat_id, message_id, posted_at, original_text, movie_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (chat_id, message_id) DO NOTHING`,
			id, p.ChatID, p.MessageID, utcMicros(p.PostedAt), nullable(p.OriginalText), p.MovieID, db.now())
		return err
	})
	observe("insert", "telegram_posts", start, err)
	if err != nil {
		return nil, false, fmt.Errorf("insert post %s/%s: %w", p.ChatID, p.MessageID, err)
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM telegram_posts WHERE chat_id = $1 AND message_id = $2`,
		p.ChatID, p.MessageID)
	stored, err := scanPost(row)
	if err != nil {
		return nil, false, fmt.Errorf("read post %s/%s: %w", p.ChatID, p.MessageID, err)
	}
	return stored, stored.ID == id, nil
}

// latestPosts returns the newest post per movie. An empty movieID covers
// all movies.
func (db *DB) latestPosts(ctx context.Context, movieID string) (map[string]*models.Post, error) {
	inner := `SELECT ` + postColumns + `,
		ROW_NUMBER() OVER (PARTITION BY movie_id ORDER BY posted_at DESC, created_at DESC) AS rn
		FROM telegram_posts`
	var args []any
	if movieID != "" {
		inner += ` WHERE movie_id = $1`
		args = append(args, movieID)
	}
	query := `SELECT ` + postColumns + ` FROM (` + inner + `) latest WHERE rn = 1`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		observe("select", "telegram_posts", start, err)
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer closeQuietly(rows)

	out := make(map[string]*models.Post)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out[p.MovieID] = p
	}
	err = rows.Err()
	observe("select", "telegram_posts", start, err)
	if err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}
