// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

/*
Package api exposes kinoteka over HTTP with a chi router.

Endpoints:

	GET    /api/health              database ping and upstream state
	GET    /metrics                 Prometheus exposition
	POST   /api/telegram/webhook    Telegram channel-post ingestion
	POST   /api/import              bulk link import
	GET    /api/movies              filtered and sorted list
	GET    /api/genres              genre facet
	GET    /api/movie/{id}          detail
	PATCH  /api/movie/{id}          status and watch date
	POST   /api/movie/{id}/refresh  refetch metadata
	POST   /api/ratings             rating upsert

Responses are plain JSON. Errors are {"error": "<message>"} with messages
kept short and stable because the web UI shows them as-is.

The webhook authenticates with the X-Telegram-Bot-Api-Secret-Token header
before it reads the body. An empty configured secret rejects every call.
Rejections are counted in webhook_rejections_total and written to
the security log without the secret itself.

Middleware order (outermost first): request id, access log, real IP,
recoverer, CORS, Prometheus, security headers. The /api group adds rate
limiting, no-store and gzip.
*/
package api
