// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

/*
Package middleware provides chi-compatible HTTP middleware.

Key Components:

  - RequestID: X-Request-ID propagation plus request and correlation ids in
    the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge labelled
    by chi route pattern
  - AccessLog: one structured line per request
  - Compression: gzip for clients that accept it
  - SecurityHeaders and NoStore: response headers

Stack order used by the router:

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compression)

Route labels come from chi's RoutePattern, so "/api/movie/{id}" is one
series regardless of the id. Requests that matched no route are labelled
"unmatched".
*/
package middleware
