// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kinoteka/internal/catalog"
	"github.com/tomtom215/kinoteka/internal/config"
	"github.com/tomtom215/kinoteka/internal/database"
	"github.com/tomtom215/kinoteka/internal/ingest"
	"github.com/tomtom215/kinoteka/internal/kinopoisk"
	"github.com/tomtom215/kinoteka/internal/models"
)

const testSecret = "s3cret-token"

// Kinopoisk ids the stub fetcher knows about.
const (
	idIntouchables int64 = 535341
	idMatrix       int64 = 301
	idUnknown      int64 = 999
)

// dbSemaphore serializes DuckDB-backed tests.
var dbSemaphore = make(chan struct{}, 1)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// stubFetcher returns canned details for known ids and nil otherwise.
type stubFetcher struct {
	mu      sync.Mutex
	details map[int64]*models.MovieDetails
	calls   []int64
}

func newStubFetcher() *stubFetcher {
	kp := 8.8
	return &stubFetcher{details: map[int64]*models.MovieDetails{
		idIntouchables: {
			TitleRu:         strPtr("1+1"),
			TitleOriginal:   strPtr("Intouchables"),
			Year:            intPtr(2011),
			PosterURL:       strPtr("https://image.openmoviedb.com/kinopoisk-images/1.jpg"),
			Genres:          []string{"драма", "комедия"},
			Countries:       []string{"Франция"},
			RatingKinopoisk: &kp,
		},
		idMatrix: {
			TitleRu:   strPtr("Матрица"),
			Year:      intPtr(1999),
			PosterURL: strPtr("https://evil.example.com/poster.jpg"),
			Genres:    []string{"фантастика", "боевик"},
		},
	}}
}

func (f *stubFetcher) FetchDetails(_ context.Context, id int64, _ models.MediaType, _ time.Duration) *models.MovieDetails {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	d, ok := f.details[id]
	if !ok {
		return nil
	}
	cp := *d
	return &cp
}

func (f *stubFetcher) forget(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.details, id)
}

type stubUpstream struct{}

func (stubUpstream) BreakerState() string   { return "closed" }
func (stubUpstream) APIKeyConfigured() bool { return true }

type testEnv struct {
	db      *database.DB
	fetcher *stubFetcher
	handler http.Handler
}

func testConfig(secret string) *config.Config {
	return &config.Config{
		Kinopoisk: config.KinopoiskConfig{
			ImportTimeout:  time.Second,
			RefreshTimeout: time.Second,
			WebhookTimeout: time.Second,
			StaleAfter:     24 * time.Hour,
			PosterHosts:    []string{"*.kinopoisk.ru", "image.openmoviedb.com"},
		},
		Telegram: config.TelegramConfig{
			WebhookSecret: secret,
			AckMode:       config.AckSync,
		},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitDisabled: true,
		},
	}
}

// newTestEnv builds the full handler stack on an in-memory DuckDB.
func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	dbSemaphore <- struct{}{}
	t.Cleanup(func() { <-dbSemaphore })

	db, err := database.New(&config.DatabaseConfig{
		Driver:    config.DriverDuckDB,
		Path:      ":memory:",
		MaxMemory: "256MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fetcher := newStubFetcher()
	opts := ingest.OptionsFromConfig(cfg)
	opts.IsNotFound = func(err error) bool { return errors.Is(err, database.ErrNotFound) }
	ingestSvc, err := ingest.NewService(db, fetcher, opts)
	if err != nil {
		t.Fatalf("ingest service: %v", err)
	}
	catalogSvc := catalog.NewService(db, kinopoisk.PosterAllowlist(cfg.Kinopoisk.PosterHosts))

	h := NewHandler(db, ingestSvc, catalogSvc, stubUpstream{}, cfg)
	router := NewRouter(h, NewChiMiddleware(ChiMiddlewareConfigFromSecurity(cfg.Security)))

	return &testEnv{db: db, fetcher: fetcher, handler: router.SetupChi()}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// importLinks runs a bulk import and returns the movie ids in input order.
func (e *testEnv) importLinks(t *testing.T, links ...string) []string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/import", map[string]interface{}{"links": links}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: status %d body %s", rec.Code, rec.Body.String())
	}
	var report ingest.ImportReport
	decodeBody(t, rec, &report)
	ids := make([]string, 0, len(report.Results))
	for _, r := range report.Results {
		ids = append(ids, r.MovieID)
	}
	return ids
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	var body errorResponse
	decodeBody(t, rec, &body)
	if body.Error != msg {
		t.Errorf("error = %q, want %q", body.Error, msg)
	}
}

func link(mediaType string, id int64) string {
	return "https://www.kinopoisk.ru/" + mediaType + "/" + strconv.FormatInt(id, 10) + "/"
}
