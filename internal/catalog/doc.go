// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

// Package catalog serves the read side: the filtered and sorted movie list,
// the detail view, and the genre facet.
//
// Filtering and sorting run in memory over the full loaded set. That is
// fine for a personal watchlist of a few thousand rows; a larger deployment
// would push the predicates into SQL.
package catalog
