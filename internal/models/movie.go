// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package models

import (
	"strconv"
	"time"
)

// MediaType is the Kinopoisk URL segment: film or series.
type MediaType string

const (
	MediaFilm   MediaType = "film"
	MediaSeries MediaType = "series"
)

// Valid reports whether t is film or series.
func (t MediaType) Valid() bool {
	return t == MediaFilm || t == MediaSeries
}

// WatchStatus is the local watch state of a movie.
type WatchStatus string

const (
	StatusQueued  WatchStatus = "queued"
	StatusWatched WatchStatus = "watched"
	StatusDropped WatchStatus = "dropped"
)

// ParseWatchStatus accepts only the three known statuses.
func ParseWatchStatus(s string) (WatchStatus, bool) {
	switch WatchStatus(s) {
	case StatusQueued, StatusWatched, StatusDropped:
		return WatchStatus(s), true
	default:
		return "", false
	}
}

// DetailsStatus tracks the outcome of metadata fetching.
//
//   - pending: never attempted
//   - ready: the last fetch succeeded
//   - failed: the last fetch attempt failed
type DetailsStatus string

const (
	DetailsPending DetailsStatus = "pending"
	DetailsReady   DetailsStatus = "ready"
	DetailsFailed  DetailsStatus = "failed"
)

// CastMember is one credited person.
type CastMember struct {
	Name         string  `json:"name"`
	Profession   *string `json:"profession,omitempty"`
	EnProfession *string `json:"enProfession,omitempty"`
}

// Movie is the persisted movie record.
type Movie struct {
	ID              string        `json:"id"`
	KinopoiskID     int64         `json:"kinopoiskId"`
	Type            MediaType     `json:"type"`
	TitleRu         *string       `json:"titleRu"`
	TitleOriginal   *string       `json:"titleOriginal"`
	Year            *int          `json:"year"`
	DurationMinutes *int          `json:"durationMinutes"`
	Description     *string       `json:"description"`
	PosterURL       *string       `json:"posterUrl"`
	Genres          []string      `json:"genres"`
	Countries       []string      `json:"countries"`
	Cast            []CastMember  `json:"cast"`
	RatingKinopoisk *float64      `json:"ratingKinopoisk"`
	Status          WatchStatus   `json:"status"`
	WatchedAt       *time.Time    `json:"watchedAt"`
	DetailsStatus   DetailsStatus `json:"detailsStatus"`
	LastFetchedAt   *time.Time    `json:"lastFetchedAt"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// IsNew reports whether the record has never been modified since it was
// inserted: creation and update timestamps are still identical.
func (m *Movie) IsNew() bool {
	return m.CreatedAt.Equal(m.UpdatedAt)
}

// DisplayTitle is the localized title, else the original one, else "ID <n>".
func (m *Movie) DisplayTitle() string {
	if m.TitleRu != nil && *m.TitleRu != "" {
		return *m.TitleRu
	}
	if m.TitleOriginal != nil && *m.TitleOriginal != "" {
		return *m.TitleOriginal
	}
	return "ID " + strconv.FormatInt(m.KinopoiskID, 10)
}

// MovieDetails is normalized metadata from one Kinopoisk fetch.
type MovieDetails struct {
	TitleRu         *string
	TitleOriginal   *string
	Year            *int
	DurationMinutes *int
	Description     *string
	PosterURL       *string
	Genres          []string
	Countries       []string
	Cast            []CastMember
	RatingKinopoisk *float64
}

// MovieStatePatch is a partial update of the user-controlled fields.
// A nil field is left unchanged. ClearWatchedAt wins over WatchedAt.
type MovieStatePatch struct {
	Status         *WatchStatus
	WatchedAt      *time.Time
	ClearWatchedAt bool
}

// Empty reports whether the patch changes nothing.
func (p MovieStatePatch) Empty() bool {
	return p.Status == nil && p.WatchedAt == nil && !p.ClearWatchedAt
}
