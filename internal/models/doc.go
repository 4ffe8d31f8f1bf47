// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

/*
Package models defines the records shared by storage, ingestion, the
catalog and the HTTP API.

Persisted records:

  - Movie: one row per (kinopoisk id, media type), carrying fetched metadata,
    the local watch status and the details status of the last fetch.
  - Rating: one row per (movie, rater); the rating itself may be null.
  - Post: one row per (telegram chat, message) that mentioned a movie.

Derived records:

  - MovieView: a Movie with its ratings, newest post and average rating,
    as served by the list and detail endpoints.
  - MovieDetails: the normalized result of a Kinopoisk metadata fetch.

JSON field names are camelCase because the browser UI consumes these
records directly.
*/
package models
