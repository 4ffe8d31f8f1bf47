// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

/*
Package kinopoisk talks to the kinopoisk.dev movie API and holds the pure
rules around it.

Contents:
  - ExtractLink / ParseLink: find a kinopoisk.ru/film|series/<id> link in text
  - Client: fetches one movie by id and normalizes it into models.MovieDetails
  - StalenessPolicy: decides whether fetched metadata is old enough to refetch
  - PosterAllowlist: host allowlist for poster images

Client never returns an error to its callers. Every failure (missing API key,
timeout, non-2xx status, malformed body, open circuit) is logged, counted in
kinopoisk_fetches_total and reported as a nil result. The requested media type
is accepted but not used: kinopoisk.dev serves films and series from the same
/v1.4/movie/{id} endpoint.
*/
package kinopoisk
