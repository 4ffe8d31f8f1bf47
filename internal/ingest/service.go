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
	"time"

	"github.com/tomtom215/kinoteka/internal/config"
	"github.com/tomtom215/kinoteka/internal/kinopoisk"
	"github.com/tomtom215/kinoteka/internal/logging"
	"github.com/tomtom215/kinoteka/internal/metrics"
	"github.com/tomtom215/kinoteka/internal/models"
)

var (
	// ErrMovieNotFound is returned by Refresh for an unknown movie id.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrFetchFailed is returned by Refresh when no metadata came back.
	ErrFetchFailed = errors.New("failed to fetch details")
)

// Sources label metrics and logs.
const (
	SourceImport  = "import"
	SourceWebhook = "webhook"
	SourceQueue   = "queue"
	SourceRefresh = "refresh"
)

// Store is the persistence the pipeline needs. *database.DB satisfies it.
type Store interface {
	UpsertMovie(ctx context.Context, kinopoiskID int64, mediaType models.MediaType) (*models.Movie, error)
	GetMovie(ctx context.Context, id string) (*models.Movie, error)
	ApplyDetails(ctx context.Context, id string, d *models.MovieDetails) error
	SetDetailsStatus(ctx context.Context, id string, status models.DetailsStatus) error
	InsertPost(ctx context.Context, p *models.Post) (*models.Post, bool, error)
}

// NotFound reports whether err means "no such row". It is set by the
// caller wiring a concrete store.
type NotFound func(err error) bool

// Enqueuer accepts deferred metadata fetches.
type Enqueuer interface {
	Enqueue(ctx context.Context, job RefreshJob) error
}

// Result describes one processed link.
type Result struct {
	KinopoiskID   int64                `json:"kinopoiskId"`
	Type          models.MediaType     `json:"type"`
	MovieID       string               `json:"movieId"`
	Created       bool                 `json:"created"`
	DetailsStatus models.DetailsStatus `json:"detailsStatus"`
}

// ImportReport is the bulk import response.
type ImportReport struct {
	Imported int      `json:"imported"`
	Ready    int      `json:"ready"`
	Failed   int      `json:"failed"`
	Results  []Result `json:"results"`

	// Unprocessed holds the input lines not reached before the import
	// budget ran out, in input order. They can be submitted again.
	Unprocessed []string `json:"unprocessed,omitempty"`
}

// Options configures a Service.
type Options struct {
	AckMode        string
	ImportTimeout  time.Duration
	RefreshTimeout time.Duration
	WebhookTimeout time.Duration
	StaleAfter     time.Duration

	// ImportBudget bounds one Import call so its report is written before
	// the HTTP write deadline. Zero means unbounded.
	ImportBudget time.Duration

	// Queue is required when AckMode is async.
	Queue Enqueuer

	// IsNotFound maps store errors to ErrMovieNotFound.
	IsNotFound NotFound

	Now func() time.Time
}

// OptionsFromConfig reads timeouts and the ack mode from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AckMode:        cfg.Telegram.AckMode,
		ImportTimeout:  cfg.Kinopoisk.ImportTimeout,
		RefreshTimeout: cfg.Kinopoisk.RefreshTimeout,
		WebhookTimeout: cfg.Kinopoisk.WebhookTimeout,
		StaleAfter:     cfg.Kinopoisk.StaleAfter,
		ImportBudget:   ImportBudget(cfg.Server.Timeout),
	}
}

// ImportBudget is the share of the server write timeout an import may
// spend; the rest is left for writing the report.
func ImportBudget(serverTimeout time.Duration) time.Duration {
	if serverTimeout <= 0 {
		return 0
	}
	return serverTimeout * 4 / 5
}

// Service runs the ingestion pipeline.
type Service struct {
	store     Store
	fetcher   kinopoisk.Fetcher
	staleness kinopoisk.StalenessPolicy
	opts      Options
}

// NewService builds a Service. An async ack mode without a queue is
// rejected.
func NewService(store Store, fetcher kinopoisk.Fetcher, opts Options) (*Service, error) {
	if opts.AckMode == "" {
		opts.AckMode = config.AckSync
	}
	if opts.AckMode != config.AckSync && opts.AckMode != config.AckAsync {
		return nil, fmt.Errorf("unknown ack mode %q", opts.AckMode)
	}
	if opts.AckMode == config.AckAsync && opts.Queue == nil {
		return nil, errors.New("async ack mode requires a refresh queue")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IsNotFound == nil {
		opts.IsNotFound = func(error) bool { return false }
	}

	staleness := kinopoisk.NewStalenessPolicy(opts.StaleAfter)
	staleness.Now = opts.Now

	return &Service{store: store, fetcher: fetcher, staleness: staleness, opts: opts}, nil
}

// AckMode returns the webhook acknowledgement mode in effect.
func (s *Service) AckMode() string {
	return s.opts.AckMode
}

// Import processes pasted lines in order. Blank and unparseable lines are
// skipped and a repeated (id, type) is only processed the first time.
//
// When the import budget runs out the remaining lines are returned in
// Unprocessed and nothing more is written for them. A fetch cut short by
// the budget is stored as failed.
func (s *Service) Import(ctx context.Context, lines []string) (*ImportReport, error) {
	report := &ImportReport{Results: []Result{}}
	seen := make(map[string]struct{})

	budgetCtx := ctx
	if s.opts.ImportBudget > 0 {
		var cancel context.CancelFunc
		budgetCtx, cancel = context.WithTimeout(ctx, s.opts.ImportBudget)
		defer cancel()
	}

	for i, line := range lines {
		if budgetCtx.Err() != nil && ctx.Err() == nil {
			report.Unprocessed = unprocessedLines(lines[i:])
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		link, ok := kinopoisk.ParseLink(line)
		if !ok {
			continue
		}
		if _, dup := seen[link.Key()]; dup {
			continue
		}
		seen[link.Key()] = struct{}{}

		movie, err := s.store.UpsertMovie(ctx, link.ID, link.Type)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", link.Key(), err)
		}
		created := movie.IsNew()
		metrics.RecordIngestLink(SourceImport, created)

		var status models.DetailsStatus
		if s.staleness.ShouldRefresh(movie.LastFetchedAt) {
			status, err = s.fetchAndStore(budgetCtx, movie, s.opts.ImportTimeout, SourceImport)
			if err != nil {
				return nil, fmt.Errorf("import %s: %w", link.Key(), err)
			}
		} else {
			status = models.DetailsFailed
			if movie.DetailsStatus == models.DetailsReady {
				status = models.DetailsReady
			}
		}

		report.Results = append(report.Results, Result{
			KinopoiskID:   link.ID,
			Type:          link.Type,
			MovieID:       movie.ID,
			Created:       created,
			DetailsStatus: status,
		})
		switch status {
		case models.DetailsReady:
			report.Ready++
		case models.DetailsFailed:
			report.Failed++
		}
	}

	report.Imported = len(report.Results)
	if len(report.Unprocessed) > 0 {
		logging.Ctx(ctx).Warn().
			Int("unprocessed", len(report.Unprocessed)).
			Dur("budget", s.opts.ImportBudget).
			Msg("Import budget exhausted")
	}
	logging.Ctx(ctx).Info().
		Int("imported", report.Imported).
		Int("ready", report.Ready).
		Int("failed", report.Failed).
		Msg("Import finished")
	return report, nil
}

func unprocessedLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// IngestUpdate processes the channel post and then the direct message of
// one Telegram update. Messages without a link produce no result.
func (s *Service) IngestUpdate(ctx context.Context, update *models.TelegramUpdate) ([]Result, error) {
	var results []Result
	for _, msg := range update.Messages() {
		r, err := s.ingestMessage(ctx, msg)
		if err != nil {
			return results, err
		}
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

func (s *Service) ingestMessage(ctx context.Context, msg *models.TelegramMessage) (*Result, error) {
	body := msg.Body()
	link, ok := kinopoisk.ExtractLink(body)
	if !ok {
		metrics.IngestPostsTotal.WithLabelValues("no_link").Inc()
		logging.Ctx(ctx).Debug().
			Str("chat_id", msg.ChatKey()).
			Str("message_id", msg.MessageKey()).
			Str("text", logging.SanitizeText(body)).
			Msg("Telegram post has no Kinopoisk link")
		return nil, nil
	}

	movie, err := s.store.UpsertMovie(ctx, link.ID, link.Type)
	if err != nil {
		return nil, fmt.Errorf("webhook %s: %w", link.Key(), err)
	}
	created := movie.IsNew()
	metrics.RecordIngestLink(SourceWebhook, created)

	post := &models.Post{
		ChatID:    msg.ChatKey(),
		MessageID: msg.MessageKey(),
		PostedAt:  msg.PostedAt(s.opts.Now()),
		MovieID:   movie.ID,
	}
	if body != "" {
		post.OriginalText = &body
	}
	_, stored, err := s.store.InsertPost(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("webhook post %s/%s: %w", post.ChatID, post.MessageID, err)
	}
	if stored {
		metrics.IngestPostsTotal.WithLabelValues("stored").Inc()
	} else {
		metrics.IngestPostsTotal.WithLabelValues("duplicate").Inc()
	}

	result := &Result{
		KinopoiskID:   link.ID,
		Type:          link.Type,
		MovieID:       movie.ID,
		Created:       created,
		DetailsStatus: movie.DetailsStatus,
	}

	if !s.staleness.ShouldRefresh(movie.LastFetchedAt) {
		return result, nil
	}

	if s.opts.AckMode == config.AckAsync {
		job := RefreshJob{
			MovieID:       movie.ID,
			KinopoiskID:   movie.KinopoiskID,
			Type:          movie.Type,
			CorrelationID: logging.CorrelationIDFromContext(ctx),
		}
		if err := s.opts.Queue.Enqueue(ctx, job); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("movie_id", movie.ID).Msg("Refresh queue unavailable, marking details failed")
			if err := s.store.SetDetailsStatus(ctx, movie.ID, models.DetailsFailed); err != nil {
				return nil, fmt.Errorf("webhook mark failed %s: %w", movie.ID, err)
			}
			result.DetailsStatus = models.DetailsFailed
		}
		return result, nil
	}

	status, err := s.fetchAndStore(ctx, movie, s.opts.WebhookTimeout, SourceWebhook)
	if err != nil {
		return nil, err
	}
	result.DetailsStatus = status
	return result, nil
}

// Refresh refetches one movie regardless of staleness. On failure the
// record is left untouched.
func (s *Service) Refresh(ctx context.Context, movieID string) (*models.Movie, error) {
	movie, err := s.store.GetMovie(ctx, movieID)
	if err != nil {
		if s.opts.IsNotFound(err) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("refresh %s: %w", movieID, err)
	}

	details := s.fetcher.FetchDetails(ctx, movie.KinopoiskID, movie.Type, s.opts.RefreshTimeout)
	if details == nil {
		metrics.RecordDetailsOutcome(SourceRefresh, string(models.DetailsFailed))
		return nil, ErrFetchFailed
	}
	if err := s.store.ApplyDetails(ctx, movie.ID, details); err != nil {
		if s.opts.IsNotFound(err) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("refresh %s: %w", movieID, err)
	}
	metrics.RecordDetailsOutcome(SourceRefresh, string(models.DetailsReady))

	updated, err := s.store.GetMovie(ctx, movie.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", movieID, err)
	}
	return updated, nil
}

// fetchAndStore runs one fetch and persists its outcome.
func (s *Service) fetchAndStore(ctx context.Context, movie *models.Movie, timeout time.Duration, source string) (models.DetailsStatus, error) {
	return resolveDetails(ctx, s.store, s.fetcher, movie, timeout, source)
}

func resolveDetails(ctx context.Context, store Store, fetcher kinopoisk.Fetcher, movie *models.Movie, timeout time.Duration, source string) (models.DetailsStatus, error) {
	details := fetcher.FetchDetails(ctx, movie.KinopoiskID, movie.Type, timeout)

	// The outcome is stored even when ctx ended during the fetch.
	writeCtx := context.WithoutCancel(ctx)
	status := models.DetailsFailed
	var err error
	if details != nil {
		status = models.DetailsReady
		err = store.ApplyDetails(writeCtx, movie.ID, details)
	} else {
		err = store.SetDetailsStatus(writeCtx, movie.ID, models.DetailsFailed)
	}
	if err != nil {
		return "", fmt.Errorf("store details outcome for %s: %w", movie.ID, err)
	}

	metrics.RecordDetailsOutcome(source, string(status))
	logging.Ctx(ctx).Debug().
		Str("movie_id", movie.ID).
		Int64("kinopoisk_id", movie.KinopoiskID).
		Str("source", source).
		Str("details_status", string(status)).
		Msg("Details resolved")
	return status, nil
}
