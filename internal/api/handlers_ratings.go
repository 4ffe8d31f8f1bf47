// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/kinoteka/internal/database"
	"github.com/tomtom215/kinoteka/internal/logging"
	"github.com/tomtom215/kinoteka/internal/validation"
)

// UpsertRating creates or updates one rater's score for a movie.
// "rating": null clears the score; an absent or null comment keeps the
// stored one.
func (h *Handler) UpsertRating(w http.ResponseWriter, r *http.Request) {
	var req validation.RatingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, msgInvalidJSON, nil)
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, r, http.StatusBadRequest, verr.First(), nil)
		return
	}

	rating, err := h.db.UpsertRating(r.Context(), req.ToUpsert())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, msgNotFound, nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, msgInternal, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("movie_id", req.MovieID).
		Str("user_key", req.UserKey).
		Bool("cleared", rating.Rating == nil).
		Msg("Rating saved")
	respondJSON(w, http.StatusOK, rating)
}
