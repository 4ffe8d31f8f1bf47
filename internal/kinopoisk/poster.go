// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package kinopoisk

import (
	"net/url"
	"strings"
)

// PosterAllowlist lists hosts poster images may be loaded from. An entry of
// the form "*.example.com" matches every subdomain of example.com but not the
// apex itself.
type PosterAllowlist []string

// Allows reports whether rawURL is an http(s) URL on an allowed host.
func (a PosterAllowlist) Allows(rawURL *string) bool {
	if rawURL == nil || *rawURL == "" || len(a) == 0 {
		return false
	}
	u, err := url.Parse(*rawURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, pattern := range a {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}
