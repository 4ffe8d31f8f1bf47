// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kinoteka/internal/logging"
)

// AccessLog writes one line per request. Server errors log at error
// level, client errors at warn and everything else at debug, so a quiet
// info-level deployment only shows problems.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		var ev *zerolog.Event
		log := logging.Ctx(r.Context())
		switch {
		case ww.statusCode >= http.StatusInternalServerError:
			ev = log.Error()
		case ww.statusCode >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Debug()
		}
		ev.Str("method", r.Method).
			Str("route", RoutePattern(r)).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request")
	})
}
