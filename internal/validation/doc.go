// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once and shared. Field names in
// errors are taken from the json tag, so messages name the wire field
// ("movieId", not "MovieID").
//
// # Messages
//
// Every field error gets a generated message ("rating must be at most 10").
// A field can override it with a msg tag, which is what the HTTP API
// returns verbatim:
//
//	type RatingRequest struct {
//	    MovieID string `json:"movieId" validate:"required" msg:"movieId required"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    writeError(w, http.StatusBadRequest, verr.First())
//	    return
//	}
//
// # Custom Validators
//
//   - integral: a float field must hold a whole number
//   - watchstatus: queued, watched or dropped
//   - raterkey: me or her
package validation
