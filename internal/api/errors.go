// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

// Error messages returned in {"error": ...} bodies.
const (
	msgInvalidJSON      = "Invalid JSON"
	msgNotFound         = "Not found"
	msgUnauthorized     = "Unauthorized"
	msgInvalidStatus    = "Invalid status"
	msgInvalidWatchedAt = "Invalid watchedAt"
	msgFetchFailed      = "Failed to fetch details"
	msgTooManyRequests  = "Too many requests"
	msgInternal         = "Internal server error"
)
