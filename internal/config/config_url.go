// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package config

import (
	"fmt"
	"net/url"
)

// validateHTTPURL accepts http(s) base URLs with a host and no path or query.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, u.Path)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}
