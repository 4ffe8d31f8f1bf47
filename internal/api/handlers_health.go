// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"net/http"
	"time"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string          `json:"status"`
	Database  string          `json:"database"`
	Kinopoisk *UpstreamHealth `json:"kinopoisk,omitempty"`
	AckMode   string          `json:"ackMode"`
	Uptime    float64         `json:"uptimeSeconds"`
}

// UpstreamHealth describes the metadata API client.
type UpstreamHealth struct {
	CircuitBreaker   string `json:"circuitBreaker"`
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
}

// Health reports process liveness and database reachability. It answers
// 200 even when the database ping fails so a dashboard can show which
// part is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		AckMode:  h.ingest.AckMode(),
		Uptime:   time.Since(h.startTime).Seconds(),
	}

	if h.db == nil || h.db.Ping(r.Context()) != nil {
		resp.Database = "error"
	}

	if h.upstream != nil {
		resp.Kinopoisk = &UpstreamHealth{
			CircuitBreaker:   h.upstream.BreakerState(),
			APIKeyConfigured: h.upstream.APIKeyConfigured(),
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
