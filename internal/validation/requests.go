// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package validation

import "github.com/tomtom215/kinoteka/internal/models"

// Request bodies of the JSON API. Fields are validated in declaration
// order and the first failure is reported.

// MaxCommentLength bounds a rating comment in runes.
const MaxCommentLength = 4000

// RatingRequest is the body of POST /api/ratings. Rating is a float so a
// fractional score is rejected by validation rather than by the decoder.
type RatingRequest struct {
	MovieID string   `json:"movieId" validate:"required" msg:"movieId required"`
	UserKey string   `json:"userKey" validate:"raterkey" msg:"userKey must be 'me' or 'her'"`
	Rating  *float64 `json:"rating" validate:"omitempty,integral,min=1,max=10" msg:"rating must be 1-10 or null"`
	Comment *string  `json:"comment" validate:"omitempty,max=4000"`
}

// ToUpsert converts a validated request.
func (r *RatingRequest) ToUpsert() models.RatingUpsert {
	up := models.RatingUpsert{
		MovieID: r.MovieID,
		UserKey: models.RaterKey(r.UserKey),
		Comment: r.Comment,
	}
	if r.Rating != nil {
		v := int(*r.Rating)
		up.Rating = &v
	}
	return up
}

// StatusRequest holds the status part of PATCH /api/movie/{id}. A nil
// Status leaves the stored value alone.
type StatusRequest struct {
	Status *string `json:"status" validate:"omitempty,watchstatus" msg:"Invalid status"`
}
