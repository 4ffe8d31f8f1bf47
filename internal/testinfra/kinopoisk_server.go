// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

//go:build integration

package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// KinopoiskRequest is one captured request.
type KinopoiskRequest struct {
	Path   string
	APIKey string
}

// MockKinopoiskServer serves canned movie bodies keyed by id.
type MockKinopoiskServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	movies   map[string]string
	requests []KinopoiskRequest
}

// NewMockKinopoiskServer starts a server that answers 404 for unknown ids.
// It is closed when the test ends.
func NewMockKinopoiskServer(t *testing.T) *MockKinopoiskServer {
	t.Helper()

	m := &MockKinopoiskServer{movies: make(map[string]string)}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Server.Close)
	return m
}

// SetMovie registers the JSON body served for id.
func (m *MockKinopoiskServer) SetMovie(id, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movies[id] = body
}

// URL returns the base URL to configure the client with.
func (m *MockKinopoiskServer) URL() string {
	return m.Server.URL
}

// Requests returns a copy of the captured requests.
func (m *MockKinopoiskServer) Requests() []KinopoiskRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]KinopoiskRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockKinopoiskServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	}

	m.mu.Lock()
	m.requests = append(m.requests, KinopoiskRequest{Path: r.URL.Path, APIKey: r.Header.Get("X-API-KEY")})
	body, ok := m.movies[strings.TrimPrefix(r.URL.Path, "/v1.4/movie/")]
	m.mu.Unlock()

	if !ok {
		http.Error(w, `{"statusCode":404,"message":"not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}
