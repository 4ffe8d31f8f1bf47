// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package kinopoisk

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const maxErrorBodySize = 4 * 1024

// statusError is a non-2xx answer from the API.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// executeRequest performs a GET with the API key header. The caller closes
// the returned body.
func executeRequest(ctx context.Context, client *http.Client, reqURL, apiKey string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("X-API-KEY", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &statusError{Code: resp.StatusCode, Body: string(readBodyForError(resp.Body))}
	}

	return resp.Body, nil
}

// readBodyForError reads at most maxErrorBodySize bytes for log context.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}
