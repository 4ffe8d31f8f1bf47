// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

// Package metrics declares the Prometheus collectors exported on /metrics.
//
// Collectors are package globals registered through promauto, so importing
// the package is enough to expose them. Groups:
//
//   - api_*: request counts, latency and in-flight requests per route pattern
//   - kinopoisk_*: outbound metadata fetches by outcome
//   - circuit_breaker_*: state of the breaker wrapping the Kinopoisk client
//   - ingest_*: links processed per entry point and the refresh queue
//   - db_*: query latency and errors
//   - webhook_*: rejected Telegram deliveries
package metrics
