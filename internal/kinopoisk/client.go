// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package kinopoisk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/kinoteka/internal/config"
	"github.com/tomtom215/kinoteka/internal/logging"
	"github.com/tomtom215/kinoteka/internal/metrics"
	"github.com/tomtom215/kinoteka/internal/models"
)

const (
	// DefaultBaseURL is the public kinopoisk.dev endpoint.
	DefaultBaseURL = "https://api.kinopoisk.dev"

	// DefaultTimeout applies when a caller passes no timeout.
	DefaultTimeout = 5 * time.Second
)

// Fetch outcomes, used as the kinopoisk_fetches_total label.
const (
	OutcomeSuccess      = "success"
	OutcomeNoAPIKey     = "no_api_key"
	OutcomeTimeout      = "timeout"
	OutcomeHTTPError    = "http_error"
	OutcomeDecodeError  = "decode_error"
	OutcomeNetworkError = "network_error"
	OutcomeRateLimited  = "rate_limited"
	OutcomeCircuitOpen  = "circuit_open"
)

// Fetcher returns normalized details for one title, or nil when they are
// unavailable for any reason.
type Fetcher interface {
	FetchDetails(ctx context.Context, id int64, mediaType models.MediaType, timeout time.Duration) *models.MovieDetails
}

// Client is the kinopoisk.dev API client.
type Client struct {
	baseURL        string
	apiKey         string
	defaultTimeout time.Duration
	httpClient     *http.Client
	limiter        *rate.Limiter   // nil when outbound limiting is disabled
	breaker        *circuitBreaker // nil when the breaker is disabled
}

var _ Fetcher = (*Client)(nil)

// NewClient builds a client from configuration. A missing API key is not an
// error here; every fetch then returns nil with a warning.
func NewClient(cfg *config.KinopoiskConfig) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		defaultTimeout: cfg.Timeout,
		// Per-call deadlines come from the context; this only bounds a
		// caller that passed a background context with no timeout.
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.defaultTimeout <= 0 {
		c.defaultTimeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.CircuitBreakerEnabled {
		c.breaker = newCircuitBreaker()
	}
	return c
}

// FetchDetails fetches /v1.4/movie/{id}. mediaType is not part of the
// request: the endpoint serves films and series alike.
func (c *Client) FetchDetails(ctx context.Context, id int64, mediaType models.MediaType, timeout time.Duration) *models.MovieDetails {
	logger := logging.Ctx(ctx).With().
		Str("component", "kinopoisk").
		Int64("kinopoisk_id", id).
		Str("type", string(mediaType)).
		Logger()

	if c.apiKey == "" {
		logger.Warn().Msg("KINOPOISK_API_KEY not set, skipping metadata fetch")
		metrics.RecordFetch(OutcomeNoAPIKey, 0)
		return nil
	}
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			logger.Warn().Err(err).Msg("Outbound rate limit wait aborted")
			metrics.RecordFetch(OutcomeRateLimited, 0)
			return nil
		}
	}

	start := time.Now()
	movie, err := c.fetch(ctx, id)
	elapsed := time.Since(start)
	if err != nil {
		outcome := classify(err)
		if outcome == OutcomeCircuitOpen {
			elapsed = 0
		}
		metrics.RecordFetch(outcome, elapsed)
		logger.Warn().Err(err).Str("outcome", outcome).Dur("elapsed", elapsed).Msg("Metadata fetch failed")
		return nil
	}

	metrics.RecordFetch(OutcomeSuccess, elapsed)
	logger.Debug().Dur("elapsed", elapsed).Msg("Metadata fetched")
	return movie.toDetails()
}

func (c *Client) fetch(ctx context.Context, id int64) (*apiMovie, error) {
	if c.breaker == nil {
		return c.getMovie(ctx, id)
	}
	return c.breaker.execute(func() (*apiMovie, error) {
		return c.getMovie(ctx, id)
	})
}

func (c *Client) getMovie(ctx context.Context, id int64) (*apiMovie, error) {
	reqURL := c.baseURL + "/v1.4/movie/" + strconv.FormatInt(id, 10)

	body, err := executeRequest(ctx, c.httpClient, reqURL, c.apiKey)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var movie apiMovie
	if err := json.NewDecoder(body).Decode(&movie); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("read response: %w", ctx.Err())
		}
		return nil, &decodeError{err: err}
	}
	return &movie, nil
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func classify(err error) string {
	var se *statusError
	var de *decodeError
	switch {
	case isRejected(err):
		return OutcomeCircuitOpen
	case errors.As(err, &se):
		return OutcomeHTTPError
	case errors.As(err, &de):
		return OutcomeDecodeError
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeNetworkError
	}
}

// BreakerState reports the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return stateToString(c.breaker.state())
}

// APIKeyConfigured reports whether fetches can reach the API at all.
func (c *Client) APIKeyConfigured() bool {
	return c.apiKey != ""
}
