// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kinoteka/internal/metrics"
	"github.com/tomtom215/kinoteka/internal/models"
)

const movieColumns = `id, kinopoisk_id, media_type, title_ru, title_original, release_year,
	duration_minutes, description, poster_url, genres, countries, cast_members,
	rating_kinopoisk, status, watched_at, details_status, last_fetched_at,
	created_at, updated_at`

const ratingColumns = `id, movie_id, user_key, rating, comment, created_at, updated_at`

const postColumns = `id, chat_id, message_id, posted_at, original_text, movie_id, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	var (
		m                                              models.Movie
		mediaType, status, detailsStatus               string
		titleRu, titleOriginal, description, posterURL sql.NullString
		year, duration                                 sql.NullInt64
		ratingKP                                       sql.NullFloat64
		genres, countries, cast                        string
		watchedAt, lastFetchedAt                       sql.NullTime
	)

	err := row.Scan(
		&m.ID, &m.KinopoiskID, &mediaType, &titleRu, &titleOriginal, &year,
		&duration, &description, &posterURL, &genres, &countries, &cast,
		&ratingKP, &status, &watchedAt, &detailsStatus, &lastFetchedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Type = models.MediaType(mediaType)
	m.Status = models.WatchStatus(status)
	m.DetailsStatus = models.DetailsStatus(detailsStatus)
	m.TitleRu = stringPtr(titleRu)
	m.TitleOriginal = stringPtr(titleOriginal)
	m.Description = stringPtr(description)
	m.PosterURL = stringPtr(posterURL)
	m.Year = intPtr(year)
	m.DurationMinutes = intPtr(duration)
	m.RatingKinopoisk = floatPtr(ratingKP)
	m.WatchedAt = timePtr(watchedAt)
	m.LastFetchedAt = timePtr(lastFetchedAt)
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()

	if m.Genres, err = decodeList[string](genres); err != nil {
		return nil, fmt.Errorf("decode genres: %w", err)
	}
	if m.Countries, err = decodeList[string](countries); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}
	if m.Cast, err = decodeList[models.CastMember](cast); err != nil {
		return nil, fmt.Errorf("decode cast: %w", err)
	}
	return &m, nil
}

func scanRating(row rowScanner) (*models.Rating, error) {
	var (
		r       models.Rating
		userKey string
		rating  sql.NullInt64
		comment sql.NullString
	)
	if err := row.Scan(&r.ID, &r.MovieID, &userKey, &rating, &comment, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.UserKey = models.RaterKey(userKey)
	r.Rating = intPtr(rating)
	r.Comment = stringPtr(comment)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p    models.Post
		text sql.NullString
	)
	if err := row.Scan(&p.ID, &p.ChatID, &p.MessageID, &p.PostedAt, &text, &p.MovieID, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.OriginalText = stringPtr(text)
	p.PostedAt = p.PostedAt.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

// encodeList stores a slice as JSON text; nil becomes "[]".
func encodeList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList[T any](raw string) ([]T, error) {
	out := []T{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// nullable turns a nil pointer into SQL NULL and dereferences the rest.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

// utcMicros normalizes a caller-supplied time to what the database stores.
func utcMicros(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func observe(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}
