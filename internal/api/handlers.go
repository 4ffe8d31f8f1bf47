// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"time"

	"github.com/tomtom215/kinoteka/internal/catalog"
	"github.com/tomtom215/kinoteka/internal/config"
	"github.com/tomtom215/kinoteka/internal/database"
	"github.com/tomtom215/kinoteka/internal/ingest"
	"github.com/tomtom215/kinoteka/internal/logging"
)

// UpstreamStatus reports the state of the metadata API client.
// *kinopoisk.Client implements it.
type UpstreamStatus interface {
	BreakerState() string
	APIKeyConfigured() bool
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: health
//   - handlers_webhook.go: Telegram webhook
//   - handlers_import.go: bulk import
//   - handlers_movies.go: list, genres, detail, update, refresh
//   - handlers_ratings.go: rating upsert
type Handler struct {
	db        *database.DB
	ingest    *ingest.Service
	catalog   *catalog.Service
	upstream  UpstreamStatus
	config    *config.Config
	security  *logging.SecurityLogger
	startTime time.Time
}

// NewHandler creates a new API handler. upstream may be nil.
func NewHandler(db *database.DB, ingestSvc *ingest.Service, catalogSvc *catalog.Service, upstream UpstreamStatus, cfg *config.Config) *Handler {
	return &Handler{
		db:        db,
		ingest:    ingestSvc,
		catalog:   catalogSvc,
		upstream:  upstream,
		config:    cfg,
		security:  logging.NewSecurityLogger(),
		startTime: time.Now(),
	}
}
