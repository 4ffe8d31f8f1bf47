// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/kinoteka/internal/metrics"
	"github.com/tomtom215/kinoteka/internal/models"
)

func channelPost(updateID, messageID int64, text string) map[string]interface{} {
	return map[string]interface{}{
		"update_id": updateID,
		"channel_post": map[string]interface{}{
			"message_id": messageID,
			"chat":       map[string]interface{}{"id": -1001234567890, "type": "channel"},
			"date":       1767225600,
			"text":       text,
		},
	}
}

func secretHeader(v string) http.Header {
	h := http.Header{}
	h.Set(TelegramSecretHeader, v)
	return h
}

func TestTelegramWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     http.Header
		reason     string
	}{
		{"missing header", testSecret, nil, "secret_missing"},
		{"wrong secret", testSecret, secretHeader("guess"), "secret_mismatch"},
		{"unconfigured", "", secretHeader("anything"), "secret_not_configured"},
		{"whitespace secret", "   ", secretHeader("   "), "secret_not_configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, testConfig(tt.configured))
			counter := metrics.WebhookRejections.WithLabelValues(tt.reason)
			before := testutil.ToFloat64(counter)

			rec := env.do(t, http.MethodPost, "/api/telegram/webhook",
				channelPost(1, 10, link("film", idIntouchables)), tt.header)

			assertError(t, rec, http.StatusUnauthorized, msgUnauthorized)
			if got := rec.Header().Get("Cache-Control"); got != "no-store" {
				t.Errorf("Cache-Control = %q, want no-store", got)
			}
			if delta := testutil.ToFloat64(counter) - before; delta != 1 {
				t.Errorf("rejection counter delta = %v, want 1", delta)
			}

			views, err := env.db.ListMovieViews(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(views) != 0 {
				t.Errorf("rejected update stored %d movies", len(views))
			}
		})
	}
}

func TestTelegramWebhook_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))

	rec := env.do(t, http.MethodPost, "/api/telegram/webhook", "{not json", secretHeader(testSecret))
	assertError(t, rec, http.StatusBadRequest, msgInvalidJSON)
}

func TestTelegramWebhook_StoresPostAndFetches(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))
	update := channelPost(7, 42, "  вечером смотрим "+link("film", idIntouchables)+"  ")
	storedBefore := testutil.ToFloat64(metrics.IngestPostsTotal.WithLabelValues("stored"))
	duplicateBefore := testutil.ToFloat64(metrics.IngestPostsTotal.WithLabelValues("duplicate"))

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/telegram/webhook", update, secretHeader(testSecret))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: status %d body %s", i, rec.Code, rec.Body.String())
		}
		var ok okResponse
		decodeBody(t, rec, &ok)
		if !ok.OK {
			t.Errorf("delivery %d: ok = false", i)
		}
		if got := rec.Header().Get("Cache-Control"); got != "no-store" {
			t.Errorf("Cache-Control = %q, want no-store", got)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/movies", nil, nil)
	var views []models.MovieView
	decodeBody(t, rec, &views)
	if len(views) != 1 {
		t.Fatalf("got %d movies, want 1", len(views))
	}
	v := views[0]
	if v.DetailsStatus != models.DetailsReady || v.TitleRu == nil || *v.TitleRu != "1+1" {
		t.Errorf("details = %s / %v", v.DetailsStatus, v.TitleRu)
	}
	if !v.PosterAllowed {
		t.Error("openmoviedb poster should be allowed")
	}
	if len(v.TelegramPosts) != 1 {
		t.Fatalf("telegramPosts = %d, want 1", len(v.TelegramPosts))
	}
	post := v.TelegramPosts[0]
	if post.ChatID != "-1001234567890" || post.MessageID != "42" {
		t.Errorf("post ids = %s/%s", post.ChatID, post.MessageID)
	}
	if post.OriginalText == nil || *post.OriginalText != "вечером смотрим "+link("film", idIntouchables) {
		t.Errorf("originalText = %v", post.OriginalText)
	}
	if post.PostedAt.Unix() != 1767225600 {
		t.Errorf("postedAt = %v", post.PostedAt)
	}

	if d := testutil.ToFloat64(metrics.IngestPostsTotal.WithLabelValues("stored")) - storedBefore; d != 1 {
		t.Errorf("stored posts = %v, want 1", d)
	}
	if d := testutil.ToFloat64(metrics.IngestPostsTotal.WithLabelValues("duplicate")) - duplicateBefore; d != 1 {
		t.Errorf("duplicate posts = %v, want 1", d)
	}
	if len(env.fetcher.calls) != 1 {
		t.Errorf("fetcher called %d times, want 1", len(env.fetcher.calls))
	}
}

func TestTelegramWebhook_NoLinkIsAcknowledged(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))

	rec := env.do(t, http.MethodPost, "/api/telegram/webhook",
		channelPost(8, 43, "просто текст без ссылок"), secretHeader(testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/telegram/webhook",
		map[string]interface{}{"update_id": 9}, secretHeader(testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("empty update: status %d", rec.Code)
	}

	views, err := env.db.ListMovieViews(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Errorf("stored %d movies, want 0", len(views))
	}
}

func TestTelegramWebhook_FetchFailureStillAcks(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))

	rec := env.do(t, http.MethodPost, "/api/telegram/webhook",
		channelPost(10, 44, link("series", idUnknown)), secretHeader(testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/movies", nil, nil)
	var views []models.MovieView
	decodeBody(t, rec, &views)
	if len(views) != 1 || views[0].DetailsStatus != models.DetailsFailed {
		t.Fatalf("views = %+v", views)
	}
	if views[0].Type != models.MediaSeries {
		t.Errorf("type = %s, want series", views[0].Type)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))

	rec := env.do(t, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" || resp.Database != "ok" {
		t.Errorf("health = %+v", resp)
	}
	if resp.AckMode != "sync" {
		t.Errorf("ackMode = %q", resp.AckMode)
	}
	if resp.Kinopoisk == nil || resp.Kinopoisk.CircuitBreaker != "closed" || !resp.Kinopoisk.APIKeyConfigured {
		t.Errorf("kinopoisk = %+v", resp.Kinopoisk)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	env := newTestEnv(t, testConfig(testSecret))
	if err := env.db.Close(); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" || resp.Database != "error" {
		t.Errorf("health = %+v", resp)
	}
}
