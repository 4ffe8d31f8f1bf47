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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kinoteka/internal/models"
)

// UpsertMovie returns the movie identified by (kinopoiskID, mediaType),
// creating it with status queued and details pending when absent.
//
// An existing row keeps all of its data; only updated_at moves forward, so
// Movie.IsNew is true exactly for the call that inserted the row.
func (db *DB) UpsertMovie(ctx context.Context, kinopoiskID int64, mediaType models.MediaType) (*models.Movie, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := withRetry(ctx, func() error {
		now := db.now()
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO movies (id, kinopoisk_id, media_type, status, details_status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (kinopoisk_id, media_type) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
			uuid.NewString(), kinopoiskID, string(mediaType),
			string(models.StatusQueued), string(models.DetailsPending), now, now,
		)
		return err
	})
	observe("upsert", "movies", start, err)
	if err != nil {
		return nil, fmt.Errorf("upsert movie %s/%d: %w", mediaType, kinopoiskID, err)
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE kinopoisk_id = $1 AND media_type = $2`,
		kinopoiskID, string(mediaType))
	m, err := scanMovie(row)
	if err != nil {
		return nil, fmt.Errorf("read movie %s/%d: %w", mediaType, kinopoiskID, err)
	}
	return m, nil
}

// GetMovie loads one movie by id.
func (db *DB) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	m, err := scanMovie(db.conn.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		observe("select", "movies", start, nil)
		return nil, ErrNotFound
	}
	observe("select", "movies", start, err)
	if err != nil {
		return nil, fmt.Errorf("get movie %s: %w", id, err)
	}
	return m, nil
}

// ApplyDetails writes fetched metadata, stamps last_fetched_at and marks
// details ready.
func (db *DB) ApplyDetails(ctx context.Context, id string, d *models.MovieDetails) error {
	if d == nil {
		return errors.New("apply details: nil details")
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	genres, err := encodeList(d.Genres)
	if err != nil {
		return fmt.Errorf("encode genres: %w", err)
	}
	countries, err := encodeList(d.Countries)
	if err != nil {
		return fmt.Errorf("encode countries: %w", err)
	}
	cast, err := encodeList(d.Cast)
	if err != nil {
		return fmt.Errorf("encode cast: %w", err)
	}

	start := time.Now()
	var affected int64
	err = withRetry(ctx, func() error {
		now := db.now()
		res, err := db.conn.ExecContext(ctx, `
			UPDATE movies SET
				title_ru = $2, title_original = $3, release_year = $4, duration_minutes = $5,
				description = $6, poster_url = $7, genres = $8, countries = $9,
				cast_members = $10, rating_kinopoisk = $11, details_status = $12,
				last_fetched_at = $13, updated_at = $14
			WHERE id = $1`,
			id, nullable(d.TitleRu), nullable(d.TitleOriginal), nullable(d.Year), nullable(d.DurationMinutes),
			nullable(d.Description), nullable(d.PosterURL), genres, countries,
			cast, nullable(d.RatingKinopoisk), string(models.DetailsReady),
			now, now,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	observe("update", "movies", start, err)
	if err != nil {
		return fmt.Errorf("apply details %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDetailsStatus changes only the details status. Metadata from an
// earlier successful fetch is left in place.
func (db *DB) SetDetailsStatus(ctx context.Context, id string, status models.DetailsStatus) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var affected int64
	err := withRetry(ctx, func() error {
		res, err := db.conn.ExecContext(ctx,
			`UPDATE movies SET details_status = $2, updated_at = $3 WHERE id = $1`,
			id, string(status), db.now())
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	observe("update", "movies", start, err)
	if err != nil {
		return fmt.Errorf("set details status %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMovieState applies a status/watchedAt patch and returns the row.
func (db *DB) UpdateMovieState(ctx context.Context, id string, patch models.MovieStatePatch) (*models.Movie, error) {
	if patch.Empty() {
		return db.GetMovie(ctx, id)
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	sets := make([]string, 0, 3)
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	switch {
	case patch.ClearWatchedAt:
		sets = append(sets, "watched_at = NULL")
	case patch.WatchedAt != nil:
		add("watched_at", utcMicros(*patch.WatchedAt))
	}
	add("updated_at", nil)
	updatedAtArg := len(args) - 1

	query := `UPDATE movies SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`

	start := time.Now()
	var affected int64
	err := withRetry(ctx, func() error {
		args[updatedAtArg] = db.now()
		res, err := db.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	observe("update", "movies", start, err)
	if err != nil {
		return nil, fmt.Errorf("update movie state %s: %w", id, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return db.GetMovie(ctx, id)
}

// ListMovieViews loads every movie with its ratings and newest post, newest
// movie first.
func (db *DB) ListMovieViews(ctx context.Context) ([]models.MovieView, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	movies, err := db.queryMovies(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY created_at DESC`)
	observe("select", "movies", start, err)
	if err != nil {
		return nil, err
	}

	ratings, err := db.ratingsByMovie(ctx, "")
	if err != nil {
		return nil, err
	}
	posts, err := db.latestPosts(ctx, "")
	if err != nil {
		return nil, err
	}

	views := make([]models.MovieView, 0, len(movies))
	for _, m := range movies {
		views = append(views, newView(m, ratings[m.ID], posts[m.ID]))
	}
	return views, nil
}

// GetMovieView loads one movie with its ratings and newest post.
func (db *DB) GetMovieView(ctx context.Context, id string) (*models.MovieView, error) {
	m, err := db.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	ratings, err := db.ratingsByMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	posts, err := db.latestPosts(ctx, id)
	if err != nil {
		return nil, err
	}
	v := newView(m, ratings[id], posts[id])
	return &v, nil
}

// Genres returns the distinct genres across all movies, unordered.
func (db *DB) Genres(ctx context.Context) ([]string, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT genres FROM movies`)
	if err != nil {
		observe("select", "movies", start, err)
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer closeQuietly(rows)

	seen := make(map[string]struct{})
	out := []string{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan genres: %w", err)
		}
		list, err := decodeList[string](raw)
		if err != nil {
			return nil, fmt.Errorf("decode genres: %w", err)
		}
		for _, g := range list {
			if _, ok := seen[g]; ok || g == "" {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	err = rows.Err()
	observe("select", "movies", start, err)
	if err != nil {
		return nil, fmt.Errorf("iterate genres: %w", err)
	}
	return out, nil
}

func (db *DB) queryMovies(ctx context.Context, query string, args ...any) ([]*models.Movie, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer closeQuietly(rows)

	var out []*models.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return out, nil
}

func newView(m *models.Movie, ratings []models.Rating, post *models.Post) models.MovieView {
	v := models.MovieView{
		Movie:         *m,
		Ratings:       ratings,
		TelegramPosts: []models.Post{},
	}
	if v.Ratings == nil {
		v.Ratings = []models.Rating{}
	}
	if post != nil {
		v.TelegramPosts = append(v.TelegramPosts, *post)
	}
	return v
}
