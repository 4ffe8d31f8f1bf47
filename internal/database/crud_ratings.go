// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kinoteka/internal/models"
)

const (
	upsertRatingSQL = `
		INSERT INTO ratings (id, movie_id, user_key, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (movie_id, user_key) DO UPDATE SET
			rating = EXCLUDED.rating,
			updated_at = EXCLUDED.updated_at`

	upsertRatingWithCommentSQL = `
		INSERT INTO ratings (id, movie_id, user_key, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (movie_id, user_key) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			updated_at = EXCLUDED.updated_at`
)

// UpsertRating stores one rater's rating for a movie. A nil Rating clears
// the stored value; a nil Comment keeps the stored comment. Returns
// ErrNotFound when the movie does not exist.
func (db *DB) UpsertRating(ctx context.Context, in models.RatingUpsert) (*models.Rating, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	exists, err := db.movieExists(ctx, in.MovieID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	query := upsertRatingSQL
	if in.Comment != nil {
		query = upsertRatingWithCommentSQL
	}

	start := time.Now()
	err = withRetry(ctx, func() error {
		now := db.now()
		_, err := db.conn.ExecContext(ctx, query,
			uuid.NewString(), in.MovieID, string(in.UserKey),
			nullable(in.Rating), nullable(in.Comment), now, now)
		return err
	})
	observe("upsert", "ratings", start, err)
	if err != nil {
		return nil, fmt.Errorf("upsert rating %s/%s: %w", in.MovieID, in.UserKey, err)
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE movie_id = $1 AND user_key = $2`,
		in.MovieID, string(in.UserKey))
	r, err := scanRating(row)
	if err != nil {
		return nil, fmt.Errorf("read rating %s/%s: %w", in.MovieID, in.UserKey, err)
	}
	return r, nil
}

func (db *DB) movieExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = $1`, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check movie %s: %w", id, err)
	default:
		return true, nil
	}
}

// ratingsByMovie groups ratings by movie id, "me" before "her". An empty
// movieID loads all ratings.
func (db *DB) ratingsByMovie(ctx context.Context, movieID string) (map[string][]models.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings`
	var args []any
	if movieID != "" {
		query += ` WHERE movie_id = $1`
		args = append(args, movieID)
	}
	query += ` ORDER BY movie_id, user_key DESC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		observe("select", "ratings", start, err)
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer closeQuietly(rows)

	out := make(map[string][]models.Rating)
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out[r.MovieID] = append(out[r.MovieID], *r)
	}
	err = rows.Err()
	observe("select", "ratings", start, err)
	if err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return out, nil
}
