// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kinoteka/internal/logging"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// respondJSON writes v with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// respondOK writes {"ok":true}.
func respondOK(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

// respondError writes {"error":msg}. A non-nil err is logged with the
// request's correlation fields; msg is what the client sees.
func respondError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		ev := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(r.Context()).Error()
		}
		ev.Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Msg("API error")
	}
	respondJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads one JSON value from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(data, v)
}
