// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package database

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

const maxWriteRetries = 5

// closeQuietly closes a resource and explicitly ignores any error.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isTransactionConflict checks if an error is a write conflict between
// concurrent transactions. Two racing upserts of the same new key surface
// in DuckDB as a duplicate key error on the losing transaction; a retry
// takes the ON CONFLICT path.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(strings.ToLower(msg), "duplicate key")
}

// withRetry runs fn, retrying transaction conflicts with exponential backoff
// starting at 1ms.
// Other errors are returned immediately.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isTransactionConflict(err) || attempt == maxWriteRetries-1 {
			return err
		}

		backoff := time.Millisecond * time.Duration(1<<uint(attempt))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
