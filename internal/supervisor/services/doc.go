// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

// Package services adapts kinoteka components to suture.Service.
//
// Each wrapper turns a component's own lifecycle (ListenAndServe/Shutdown,
// a blocking Run) into Serve(ctx) and implements fmt.Stringer so the
// supervisor logs a readable name.
package services
