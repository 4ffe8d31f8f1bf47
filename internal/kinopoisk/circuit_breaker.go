// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package kinopoisk

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/kinoteka/internal/logging"
	"github.com/tomtom215/kinoteka/internal/metrics"
)

const breakerName = "kinopoisk-api"

// circuitBreaker guards the Kinopoisk API.
//
// Settings:
//   - 3 trial requests in half-open state
//   - counts reset every minute while closed
//   - 2 minutes open before a trial
//   - opens at >= 60% failures over at least 10 requests
//
// 4xx responses and caller cancellations are not failures: the API answered,
// or we stopped waiting for our own reasons.
type circuitBreaker struct {
	cb   *gobreaker.CircuitBreaker[*apiMovie]
	name string
}

func newCircuitBreaker() *circuitBreaker {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*apiMovie](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *statusError
			return errors.As(err, &se) && se.Code >= 400 && se.Code < 500
		},
	})

	return &circuitBreaker{cb: cb, name: breakerName}
}

func (c *circuitBreaker) execute(fn func() (*apiMovie, error)) (*apiMovie, error) {
	result, err := c.cb.Execute(fn)
	if err != nil {
		if isRejected(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(c.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(c.name, "failure").Inc()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(c.name).Set(float64(c.cb.Counts().ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(c.name).Set(0)
	return result, nil
}

func (c *circuitBreaker) state() gobreaker.State {
	return c.cb.State()
}

func isRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
