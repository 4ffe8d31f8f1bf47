// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package kinopoisk

import "time"

// DefaultStaleAfter is how long fetched metadata stays fresh.
const DefaultStaleAfter = 7 * 24 * time.Hour

// StalenessPolicy decides whether metadata should be fetched again.
type StalenessPolicy struct {
	Window time.Duration
	Now    func() time.Time
}

// NewStalenessPolicy returns a policy with the given window, falling back to
// DefaultStaleAfter when window is not positive.
func NewStalenessPolicy(window time.Duration) StalenessPolicy {
	if window <= 0 {
		window = DefaultStaleAfter
	}
	return StalenessPolicy{Window: window, Now: time.Now}
}

// ShouldRefresh is true when metadata was never fetched or is older than the
// window.
func (p StalenessPolicy) ShouldRefresh(lastFetchedAt *time.Time) bool {
	if lastFetchedAt == nil {
		return true
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	window := p.Window
	if window <= 0 {
		window = DefaultStaleAfter
	}
	return now().Sub(*lastFetchedAt) > window
}
