// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

/*
Package ingest turns Kinopoisk links into stored movies with best-effort
metadata.

Entry points:
  - Import: a batch of pasted lines, processed in request scope
  - IngestUpdate: one Telegram update (channel_post and/or message)
  - Refresh: an explicit user request to refetch one movie

Every link goes through the same steps: parse, dedup within the batch,
upsert by (kinopoisk id, type), decide "created" from the timestamps, then
fetch metadata when the staleness policy says so. A successful fetch writes
the metadata and marks details ready; a failed one marks details failed and
keeps whatever metadata was there.

Webhook acknowledgement modes:
  - sync: the fetch runs before the handler answers
  - async: the fetch is published to an in-process watermill queue and a
    RefreshWorker performs it; its outcome is written back to the store and
    reported on the worker's Outcomes channel. When the worker stops, the
    queue is sealed and every job not yet taken is marked failed

Refresh is the only path that reports an upstream failure as an error
(ErrFetchFailed). Everywhere else it becomes a details status.
*/
package ingest
