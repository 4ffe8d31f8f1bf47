// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/kinoteka/internal/config"
	"github.com/tomtom215/kinoteka/internal/metrics"
)

func TestChiMiddlewareConfigFromSecurity(t *testing.T) {
	c := ChiMiddlewareConfigFromSecurity(config.SecurityConfig{
		CORSOrigins:     []string{"https://kino.example"},
		RateLimitReqs:   0,
		RateLimitWindow: 30 * time.Second,
	})
	if c.RateLimitRequests != 100 {
		t.Errorf("zero requests should keep the default, got %d", c.RateLimitRequests)
	}
	if c.RateLimitWindow != 30*time.Second {
		t.Errorf("window = %v", c.RateLimitWindow)
	}
	if len(c.CORSAllowedOrigins) != 1 || c.CORSAllowedOrigins[0] != "https://kino.example" {
		t.Errorf("origins = %v", c.CORSAllowedOrigins)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(testSecret)
	cfg.Security.RateLimitDisabled = false
	cfg.Security.RateLimitReqs = 2
	cfg.Security.RateLimitWindow = time.Minute
	env := newTestEnv(t, cfg)

	hits := metrics.APIRateLimitHits.WithLabelValues("api")
	before := testutil.ToFloat64(hits)

	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodGet, "/api/movies", nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodGet, "/api/movies", nil, nil)
	assertError(t, rec, http.StatusTooManyRequests, msgTooManyRequests)

	if delta := testutil.ToFloat64(hits) - before; delta != 1 {
		t.Errorf("rate limit hits delta = %v, want 1", delta)
	}

	// Health and the webhook have their own budgets.
	if rec := env.do(t, http.MethodGet, "/api/health", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("health limited: %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/telegram/webhook",
		map[string]interface{}{"update_id": 1}, secretHeader(testSecret))
	if rec.Code != http.StatusOK {
		t.Errorf("webhook limited: %d", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))

	h := http.Header{}
	h.Set("Origin", "http://localhost:5173")
	h.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := env.do(t, http.MethodOptions, "/api/movie/abc", nil, h)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPatch) {
		t.Errorf("Allow-Methods = %q", got)
	}

	h.Set("Origin", "https://elsewhere.example")
	rec = env.do(t, http.MethodOptions, "/api/movie/abc", nil, h)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestRouter_Headers(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))

	rec := env.do(t, http.MethodGet, "/api/genres", nil, nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestRouter_Compression(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))
	env.importLinks(t, link("film", idIntouchables))

	h := http.Header{}
	h.Set("Accept-Encoding", "gzip")
	rec := env.do(t, http.MethodGet, "/api/movies", nil, h)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"kinopoiskId":535341`) {
		t.Errorf("decompressed body = %s", data)
	}
}

func TestRouter_Metrics(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/api/movie/{id}", "404")
	before := testutil.ToFloat64(counter)
	env.do(t, http.MethodGet, "/api/movie/missing", nil, nil)
	if delta := testutil.ToFloat64(counter) - before; delta != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", delta)
	}

	rec := env.do(t, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("exposition lacks api_requests_total")
	}
}
