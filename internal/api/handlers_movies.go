// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/kinoteka/internal/catalog"
	"github.com/tomtom215/kinoteka/internal/database"
	"github.com/tomtom215/kinoteka/internal/ingest"
	"github.com/tomtom215/kinoteka/internal/logging"
	"github.com/tomtom215/kinoteka/internal/models"
	"github.com/tomtom215/kinoteka/internal/validation"
)

// Movies returns the filtered and sorted list.
func (h *Handler) Movies(w http.ResponseWriter, r *http.Request) {
	views, err := h.catalog.List(r.Context(), catalog.ParseQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, msgInternal, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

// Genres returns the genre facet.
func (h *Handler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.Genres(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, msgInternal, err)
		return
	}
	respondJSON(w, http.StatusOK, genres)
}

// Movie returns one movie with ratings, latest post and average rating.
func (h *Handler) Movie(w http.ResponseWriter, r *http.Request) {
	view, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, msgNotFound, nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, msgInternal, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// UpdateMovie applies a partial {status?, watchedAt?} update.
//
// Absent fields are left alone. watchedAt null or "" clears the date.
func (h *Handler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil || body == nil {
		respondError(w, r, http.StatusBadRequest, msgInvalidJSON, nil)
		return
	}

	patch, msg := parseMoviePatch(body)
	if msg != "" {
		respondError(w, r, http.StatusBadRequest, msg, nil)
		return
	}

	id := chi.URLParam(r, "id")
	movie, err := h.db.UpdateMovieState(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, msgNotFound, nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, msgInternal, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("movie_id", id).
		Str("status", string(movie.Status)).
		Msg("Movie updated")
	respondJSON(w, http.StatusOK, movie)
}

// parseMoviePatch returns the patch or a client error message.
func parseMoviePatch(body map[string]json.RawMessage) (models.MovieStatePatch, string) {
	var patch models.MovieStatePatch

	if raw, ok := body["status"]; ok {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil || s == nil {
			return patch, msgInvalidStatus
		}
		if verr := validation.ValidateStruct(&validation.StatusRequest{Status: s}); verr != nil {
			return patch, verr.First()
		}
		status := models.WatchStatus(*s)
		patch.Status = &status
	}

	if raw, ok := body["watchedAt"]; ok {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return patch, msgInvalidWatchedAt
		}
		if s == nil || *s == "" {
			patch.ClearWatchedAt = true
		} else {
			t, ok := parseTimestamp(*s)
			if !ok {
				return patch, msgInvalidWatchedAt
			}
			patch.WatchedAt = &t
		}
	}

	return patch, ""
}

// timestampLayouts are tried in order. Layouts without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// RefreshMovie refetches metadata regardless of staleness.
func (h *Handler) RefreshMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.ingest.Refresh(r.Context(), id)
	switch {
	case err == nil:
		logging.Ctx(r.Context()).Info().Str("movie_id", id).Msg("Movie refreshed")
		respondOK(w)
	case errors.Is(err, ingest.ErrMovieNotFound):
		respondError(w, r, http.StatusNotFound, msgNotFound, nil)
	case errors.Is(err, ingest.ErrFetchFailed):
		respondError(w, r, http.StatusBadGateway, msgFetchFailed, err)
	default:
		respondError(w, r, http.StatusInternalServerError, msgInternal, err)
	}
}
