// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/kinoteka/internal/config"
	"github.com/tomtom215/kinoteka/internal/models"
)

var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		AckMode:        config.AckSync,
		ImportTimeout:  12 * time.Second,
		RefreshTimeout: 8 * time.Second,
		WebhookTimeout: 11 * time.Second,
		StaleAfter:     7 * 24 * time.Hour,
		IsNotFound:     isFakeNotFound,
		Now:            func() time.Time { return testNow },
	}
}

func newTestService(t *testing.T, store Store, fetcher *stubFetcher, mutate func(*Options)) *Service {
	t.Helper()
	opts := testOptions()
	if mutate != nil {
		mutate(&opts)
	}
	svc, err := NewService(store, fetcher, opts)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestNewService_Validation(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher()

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"default ack mode", Options{}, false},
		{"sync", Options{AckMode: config.AckSync}, false},
		{"unknown mode", Options{AckMode: "later"}, true},
		{"async without queue", Options{AckMode: config.AckAsync}, true},
		{"async with queue", Options{AckMode: config.AckAsync, Queue: &recordingQueue{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(store, fetcher, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewService() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && svc.AckMode() == "" {
				t.Error("AckMode() is empty")
			}
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Kinopoisk: config.KinopoiskConfig{
			ImportTimeout:  time.Second,
			RefreshTimeout: 2 * time.Second,
			WebhookTimeout: 3 * time.Second,
			StaleAfter:     time.Hour,
		},
		Telegram: config.TelegramConfig{AckMode: config.AckAsync},
		Server:   config.ServerConfig{Timeout: 2 * time.Minute},
	}
	opts := OptionsFromConfig(cfg)
	if opts.AckMode != config.AckAsync || opts.ImportTimeout != time.Second ||
		opts.RefreshTimeout != 2*time.Second || opts.WebhookTimeout != 3*time.Second ||
		opts.StaleAfter != time.Hour {
		t.Errorf("OptionsFromConfig() = %+v", opts)
	}
	if opts.ImportBudget != 96*time.Second {
		t.Errorf("ImportBudget = %v, want 96s", opts.ImportBudget)
	}
	if got := ImportBudget(0); got != 0 {
		t.Errorf("ImportBudget(0) = %v, want unbounded", got)
	}
}

func TestImport_BudgetReturnsPartialReport(t *testing.T) {
	store := newMemStore()
	opts := testOptions()
	opts.ImportBudget = 100 * time.Millisecond
	svc, err := NewService(store, &slowFetcher{delay: 40 * time.Millisecond, succeed: true}, opts)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("https://www.kinopoisk.ru/film/%d/", i+1)
	}

	report, err := svc.Import(context.Background(), lines)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if report.Imported == 0 || len(report.Unprocessed) == 0 {
		t.Fatalf("report = %+v, want a partial import", report)
	}
	if report.Imported+len(report.Unprocessed) != len(lines) {
		t.Errorf("imported %d + unprocessed %d != %d lines", report.Imported, len(report.Unprocessed), len(lines))
	}
	if report.Unprocessed[0] != lines[report.Imported] {
		t.Errorf("first unprocessed = %q, want %q", report.Unprocessed[0], lines[report.Imported])
	}
	if n := store.movieCount(); n != report.Imported {
		t.Errorf("stored movies = %d, want %d", n, report.Imported)
	}
	for _, r := range report.Results {
		if got := store.movie(r.MovieID).DetailsStatus; got != r.DetailsStatus || got == models.DetailsPending {
			t.Errorf("movie %s stored %s, reported %s", r.MovieID, got, r.DetailsStatus)
		}
	}
}

func TestImport_DedupAndOrder(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher(1, 2)
	svc := newTestService(t, store, fetcher, nil)

	lines := []string{
		"https://www.kinopoisk.ru/film/1/",
		"",
		"   ",
		"not a link",
		"https://www.kinopoisk.ru/series/2/",
		"https://kinopoisk.ru/film/1",
		"kinopoisk.ru/film/3/",
	}

	report, err := svc.Import(context.Background(), lines)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if report.Imported != 3 || len(report.Results) != 3 {
		t.Fatalf("Imported = %d (%d results), want 3", report.Imported, len(report.Results))
	}
	if report.Ready != 2 || report.Failed != 1 {
		t.Errorf("Ready/Failed = %d/%d, want 2/1", report.Ready, report.Failed)
	}

	want := []struct {
		id     int64
		typ    models.MediaType
		status models.DetailsStatus
	}{
		{1, models.MediaFilm, models.DetailsReady},
		{2, models.MediaSeries, models.DetailsReady},
		{3, models.MediaFilm, models.DetailsFailed},
	}
	for i, w := range want {
		r := report.Results[i]
		if r.KinopoiskID != w.id || r.Type != w.typ || r.DetailsStatus != w.status {
			t.Errorf("Results[%d] = %+v, want id=%d type=%s status=%s", i, r, w.id, w.typ, w.status)
		}
		if !r.Created {
			t.Errorf("Results[%d].Created = false, want true", i)
		}
		if r.MovieID == "" {
			t.Errorf("Results[%d].MovieID is empty", i)
		}
	}

	if got := fetcher.callCount(); got != 3 {
		t.Errorf("fetch calls = %d, want 3", got)
	}
	for _, d := range fetcher.timeouts {
		if d != 12*time.Second {
			t.Errorf("fetch timeout = %v, want import timeout", d)
		}
	}
	if m := store.movie(report.Results[0].MovieID); m.DetailsStatus != models.DetailsReady || m.LastFetchedAt == nil {
		t.Errorf("movie after import = %+v, want ready with last fetch", m)
	}
	if m := store.movie(report.Results[2].MovieID); m.DetailsStatus != models.DetailsFailed || m.LastFetchedAt != nil {
		t.Errorf("failed movie = %+v, want failed without last fetch", m)
	}
}

func TestImport_SecondRunNotCreatedAndFresh(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher(7)
	svc := newTestService(t, store, fetcher, func(o *Options) {
		o.Now = func() time.Time { return store.clock }
	})
	ctx := context.Background()

	if _, err := svc.Import(ctx, []string{"kinopoisk.ru/film/7"}); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	report, err := svc.Import(ctx, []string{"kinopoisk.ru/film/7"})
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}

	r := report.Results[0]
	if r.Created {
		t.Error("second import reported Created = true")
	}
	if r.DetailsStatus != models.DetailsReady {
		t.Errorf("DetailsStatus = %s, want ready", r.DetailsStatus)
	}
	if got := fetcher.callCount(); got != 1 {
		t.Errorf("fetch calls = %d, want 1 (fresh metadata is not refetched)", got)
	}
}

func TestImport_FreshButFailedReportsFailed(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher()
	svc := newTestService(t, store, fetcher, func(o *Options) {
		o.Now = func() time.Time { return store.clock }
	})
	ctx := context.Background()

	m, _ := store.UpsertMovie(ctx, 9, models.MediaFilm)
	store.markFetched(m.ID, store.clock)
	_ = store.SetDetailsStatus(ctx, m.ID, models.DetailsPending)

	report, err := svc.Import(ctx, []string{"kinopoisk.ru/film/9"})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got := report.Results[0].DetailsStatus; got != models.DetailsFailed {
		t.Errorf("DetailsStatus = %s, want failed for a fresh non-ready record", got)
	}
	if fetcher.callCount() != 0 {
		t.Error("fresh record was fetched")
	}
}

func TestImport_StoreError(t *testing.T) {
	store := newMemStore()
	store.upsertErr = errors.New("disk full")
	svc := newTestService(t, store, newStubFetcher(), nil)

	if _, err := svc.Import(context.Background(), []string{"kinopoisk.ru/film/1"}); err == nil {
		t.Fatal("Import() error = nil, want store error")
	}
}

func TestImport_EmptyInput(t *testing.T) {
	svc := newTestService(t, newMemStore(), newStubFetcher(), nil)

	report, err := svc.Import(context.Background(), []string{"", "junk"})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if report.Imported != 0 || report.Results == nil {
		t.Errorf("report = %+v, want zero imports with empty results", report)
	}
}

func TestIngestUpdate_Sync(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher(42)
	svc := newTestService(t, store, fetcher, nil)
	ctx := context.Background()

	update := &models.TelegramUpdate{
		UpdateID: 1,
		ChannelPost: &models.TelegramMessage{
			MessageID: 10,
			Chat:      models.TelegramChat{ID: -100},
			Date:      1700000000,
			Text:      strPtr("Смотрим сегодня\nhttps://www.kinopoisk.ru/film/42/"),
		},
		Message: &models.TelegramMessage{
			MessageID: 11,
			Chat:      models.TelegramChat{ID: 5},
			Caption:   strPtr("kinopoisk.ru/film/42"),
		},
	}

	results, err := svc.IngestUpdate(ctx, update)
	if err != nil {
		t.Fatalf("IngestUpdate() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !results[0].Created || results[1].Created {
		t.Errorf("Created = %v/%v, want true/false", results[0].Created, results[1].Created)
	}
	if results[0].DetailsStatus != models.DetailsReady {
		t.Errorf("first DetailsStatus = %s, want ready", results[0].DetailsStatus)
	}
	if results[0].MovieID != results[1].MovieID {
		t.Error("both messages should point at the same movie")
	}
	if store.postCount() != 2 {
		t.Errorf("posts = %d, want 2", store.postCount())
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.callCount())
	}
	if fetcher.timeouts[0] != 11*time.Second {
		t.Errorf("fetch timeout = %v, want webhook timeout", fetcher.timeouts[0])
	}

	post := store.posts["-100/10"]
	if post == nil {
		t.Fatal("channel post not stored")
	}
	if !post.PostedAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("PostedAt = %v", post.PostedAt)
	}
	if post.OriginalText == nil || !strings.Contains(*post.OriginalText, "Смотрим") {
		t.Errorf("OriginalText = %v", post.OriginalText)
	}
	if p := store.posts["5/11"]; p == nil || !p.PostedAt.Equal(testNow) {
		t.Errorf("message without date should be posted at now, got %+v", p)
	}
}

func TestIngestUpdate_RedeliveryKeepsOnePost(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, newStubFetcher(1), nil)
	ctx := context.Background()

	update := &models.TelegramUpdate{ChannelPost: &models.TelegramMessage{
		MessageID: 1, Chat: models.TelegramChat{ID: 2}, Text: strPtr("kinopoisk.ru/film/1"),
	}}

	for i := 0; i < 3; i++ {
		if _, err := svc.IngestUpdate(ctx, update); err != nil {
			t.Fatalf("IngestUpdate() #%d error = %v", i, err)
		}
	}
	if store.postCount() != 1 {
		t.Errorf("posts = %d, want 1", store.postCount())
	}
}

func TestIngestUpdate_NoLink(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher()
	svc := newTestService(t, store, fetcher, nil)

	update := &models.TelegramUpdate{ChannelPost: &models.TelegramMessage{
		MessageID: 1, Chat: models.TelegramChat{ID: 2}, Text: strPtr("просто текст"),
	}}
	results, err := svc.IngestUpdate(context.Background(), update)
	if err != nil {
		t.Fatalf("IngestUpdate() error = %v", err)
	}
	if len(results) != 0 || store.postCount() != 0 || fetcher.callCount() != 0 {
		t.Errorf("no-link message had side effects: results=%d posts=%d fetches=%d",
			len(results), store.postCount(), fetcher.callCount())
	}

	empty, err := svc.IngestUpdate(context.Background(), &models.TelegramUpdate{UpdateID: 9})
	if err != nil || len(empty) != 0 {
		t.Errorf("update without messages = %v, %v", empty, err)
	}
}

func TestIngestUpdate_CaptionFallback(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, newStubFetcher(), nil)

	// Caption only; the text field is absent.
	update := &models.TelegramUpdate{Message: &models.TelegramMessage{
		MessageID: 3, Chat: models.TelegramChat{ID: 4}, Caption: strPtr("  kinopoisk.ru/series/8  "),
	}}
	results, err := svc.IngestUpdate(context.Background(), update)
	if err != nil {
		t.Fatalf("IngestUpdate() error = %v", err)
	}
	if len(results) != 1 || results[0].Type != models.MediaSeries {
		t.Fatalf("results = %+v", results)
	}
	if got := store.posts["4/3"].OriginalText; got == nil || *got != "kinopoisk.ru/series/8" {
		t.Errorf("OriginalText = %v, want trimmed caption", got)
	}
}

func TestIngestUpdate_AsyncEnqueues(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher(1)
	queue := &recordingQueue{}
	svc := newTestService(t, store, fetcher, func(o *Options) {
		o.AckMode = config.AckAsync
		o.Queue = queue
	})

	update := &models.TelegramUpdate{ChannelPost: &models.TelegramMessage{
		MessageID: 1, Chat: models.TelegramChat{ID: 2}, Text: strPtr("kinopoisk.ru/film/1"),
	}}
	results, err := svc.IngestUpdate(context.Background(), update)
	if err != nil {
		t.Fatalf("IngestUpdate() error = %v", err)
	}
	if fetcher.callCount() != 0 {
		t.Error("async mode fetched in request scope")
	}
	if len(queue.jobs) != 1 || queue.jobs[0].MovieID != results[0].MovieID || queue.jobs[0].KinopoiskID != 1 {
		t.Errorf("jobs = %+v", queue.jobs)
	}
	if results[0].DetailsStatus != models.DetailsPending {
		t.Errorf("DetailsStatus = %s, want pending until the worker runs", results[0].DetailsStatus)
	}
}

func TestIngestUpdate_AsyncQueueFailureMarksFailed(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, newStubFetcher(1), func(o *Options) {
		o.AckMode = config.AckAsync
		o.Queue = failingQueue{}
	})

	update := &models.TelegramUpdate{ChannelPost: &models.TelegramMessage{
		MessageID: 1, Chat: models.TelegramChat{ID: 2}, Text: strPtr("kinopoisk.ru/film/1"),
	}}
	results, err := svc.IngestUpdate(context.Background(), update)
	if err != nil {
		t.Fatalf("IngestUpdate() error = %v", err)
	}
	if results[0].DetailsStatus != models.DetailsFailed {
		t.Errorf("DetailsStatus = %s, want failed", results[0].DetailsStatus)
	}
	if m := store.movie(results[0].MovieID); m.DetailsStatus != models.DetailsFailed {
		t.Errorf("stored DetailsStatus = %s, want failed", m.DetailsStatus)
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown movie", func(t *testing.T) {
		svc := newTestService(t, newMemStore(), newStubFetcher(), nil)
		if _, err := svc.Refresh(ctx, "missing"); !errors.Is(err, ErrMovieNotFound) {
			t.Errorf("Refresh() error = %v, want ErrMovieNotFound", err)
		}
	})

	t.Run("fetch failure leaves record untouched", func(t *testing.T) {
		store := newMemStore()
		svc := newTestService(t, store, newStubFetcher(), nil)
		m, _ := store.UpsertMovie(ctx, 5, models.MediaFilm)
		before := store.movie(m.ID)

		if _, err := svc.Refresh(ctx, m.ID); !errors.Is(err, ErrFetchFailed) {
			t.Fatalf("Refresh() error = %v, want ErrFetchFailed", err)
		}
		after := store.movie(m.ID)
		if after.DetailsStatus != before.DetailsStatus || !after.UpdatedAt.Equal(before.UpdatedAt) {
			t.Errorf("record changed: before %+v after %+v", before, after)
		}
	})

	t.Run("success ignores staleness", func(t *testing.T) {
		store := newMemStore()
		fetcher := newStubFetcher(5)
		svc := newTestService(t, store, fetcher, nil)
		m, _ := store.UpsertMovie(ctx, 5, models.MediaFilm)
		store.markFetched(m.ID, testNow)

		got, err := svc.Refresh(ctx, m.ID)
		if err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if got.DetailsStatus != models.DetailsReady || got.TitleRu == nil || *got.TitleRu != "Фильм 5" {
			t.Errorf("Refresh() = %+v", got)
		}
		if fetcher.timeouts[0] != 8*time.Second {
			t.Errorf("fetch timeout = %v, want refresh timeout", fetcher.timeouts[0])
		}
	})
}
