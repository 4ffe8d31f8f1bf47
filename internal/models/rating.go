// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package models

import "time"

// RaterKey identifies one of the two fixed raters.
type RaterKey string

const (
	RaterMe  RaterKey = "me"
	RaterHer RaterKey = "her"
)

// Valid reports whether k is me or her.
func (k RaterKey) Valid() bool {
	return k == RaterMe || k == RaterHer
}

// Rating values are bounded to 1..10.
const (
	MinRating = 1
	MaxRating = 10
)

// Rating is one rater's score and note for a movie. A nil Rating value
// means the rater cleared it or never scored the movie.
type Rating struct {
	ID        string    `json:"id"`
	MovieID   string    `json:"movieId"`
	UserKey   RaterKey  `json:"userKey"`
	Rating    *int      `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RatingUpsert is the input of a rating submission. A nil Comment keeps the
// stored comment.
type RatingUpsert struct {
	MovieID string
	UserKey RaterKey
	Rating  *int
	Comment *string
}
