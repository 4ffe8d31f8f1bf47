// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Requests rejected by the inbound rate limiter",
		},
		[]string{"route_group"},
	)

	// Kinopoisk

	KinopoiskFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kinopoisk_fetches_total",
			Help: "Metadata fetches by outcome",
		},
		// outcome: success, no_api_key, timeout, http_error, decode_error, network_error, rate_limited, circuit_open
		[]string{"outcome"},
	)

	KinopoiskFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kinopoisk_fetch_duration_seconds",
			Help:    "Duration of metadata fetches that reached the network",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
		},
	)

	// Circuit breaker

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Ingest

	IngestLinks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_links_total",
			Help: "Parsed links upserted, by entry point and whether the movie was new",
		},
		[]string{"source", "created"}, // source: import, webhook
	)

	IngestDetailsOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_details_outcomes_total",
			Help: "Details status written after a fetch decision",
		},
		[]string{"source", "status"}, // source: import, webhook, queue, refresh
	)

	IngestPostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_posts_total",
			Help: "Telegram posts seen by the webhook",
		},
		[]string{"result"}, // stored, duplicate, no_link
	)

	RefreshQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_refresh_queue_depth",
			Help: "Queued metadata fetches not yet processed",
		},
	)

	RefreshJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_refresh_jobs_total",
			Help: "Background refresh jobs by result",
		},
		[]string{"result"}, // ready, failed, error, skipped, invalid
	)

	// Database

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Failed database queries",
		},
		[]string{"operation", "table"},
	)

	// Webhook

	WebhookRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_rejections_total",
			Help: "Telegram webhook calls refused before processing",
		},
		[]string{"reason"},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordDBQuery observes a query and counts it as failed when err != nil.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordFetch counts a Kinopoisk fetch outcome. Durations are observed only
// for attempts that went out on the wire.
func RecordFetch(outcome string, duration time.Duration) {
	KinopoiskFetches.WithLabelValues(outcome).Inc()
	if duration > 0 {
		KinopoiskFetchDuration.Observe(duration.Seconds())
	}
}

// RecordIngestLink counts an upserted link.
func RecordIngestLink(source string, created bool) {
	c := "false"
	if created {
		c = "true"
	}
	IngestLinks.WithLabelValues(source, c).Inc()
}

// RecordDetailsOutcome counts the details status written by source.
func RecordDetailsOutcome(source, status string) {
	IngestDetailsOutcomes.WithLabelValues(source, status).Inc()
}
