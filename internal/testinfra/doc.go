// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

// Package testinfra provides test infrastructure for integration tests.
//
// All files are behind the integration build tag:
//
//	go test -tags integration ./...
//
// # PostgreSQL
//
// NewPostgresContainer starts a disposable PostgreSQL server with
// testcontainers-go so the persistence layer can be exercised against the
// production server driver as well as embedded DuckDB:
//
//	func TestSomething(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    pg := testinfra.StartPostgres(t)
//	    db, err := database.New(&config.DatabaseConfig{Driver: "postgres", URL: pg.DSN})
//	    ...
//	}
//
// # Kinopoisk API double
//
// MockKinopoiskServer serves canned /v1.4/movie/{id} responses and records
// every request, including the X-API-KEY header.
//
// Tests are skipped gracefully when Docker is unavailable.
package testinfra
