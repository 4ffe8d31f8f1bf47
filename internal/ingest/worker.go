// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/kinoteka/internal/kinopoisk"
	"github.com/tomtom215/kinoteka/internal/logging"
	"github.com/tomtom215/kinoteka/internal/metrics"
	"github.com/tomtom215/kinoteka/internal/models"
)

// Refresh job results, also used as metric labels.
const (
	JobReady   = "ready"
	JobFailed  = "failed"
	JobSkipped = "skipped"
	JobMissing = "missing"
	JobInvalid = "invalid"
	JobError   = "error"
)

// ErrWorkerStopped is the outcome error of jobs failed at shutdown.
var ErrWorkerStopped = errors.New("refresh worker stopped before the job was fetched")

// Outcome reports what happened to one queued job.
type Outcome struct {
	Job    RefreshJob
	Result string
	Err    error
}

// WorkerConfig configures a RefreshWorker.
type WorkerConfig struct {
	Workers       int
	QueuedTimeout time.Duration
	StaleAfter    time.Duration
	IsNotFound    NotFound
	Now           func() time.Time
}

// WorkerStats are cumulative counters.
type WorkerStats struct {
	Received int64
	Ready    int64
	Failed   int64
	Skipped  int64
}

// RefreshWorker consumes the refresh queue. Each job re-checks staleness
// before fetching so a movie enqueued twice is fetched once.
type RefreshWorker struct {
	queue     *RefreshQueue
	store     Store
	fetcher   kinopoisk.Fetcher
	staleness kinopoisk.StalenessPolicy
	cfg       WorkerConfig

	outcomes chan Outcome

	received atomic.Int64
	ready    atomic.Int64
	failed   atomic.Int64
	skipped  atomic.Int64
}

// NewRefreshWorker builds a worker over queue.
func NewRefreshWorker(queue *RefreshQueue, store Store, fetcher kinopoisk.Fetcher, cfg WorkerConfig) *RefreshWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IsNotFound == nil {
		cfg.IsNotFound = func(error) bool { return false }
	}
	staleness := kinopoisk.NewStalenessPolicy(cfg.StaleAfter)
	staleness.Now = cfg.Now

	return &RefreshWorker{
		queue:     queue,
		store:     store,
		fetcher:   fetcher,
		staleness: staleness,
		cfg:       cfg,
		outcomes:  make(chan Outcome, 64),
	}
}

// Outcomes delivers job results. Sends never block; results are dropped
// when nobody reads.
func (w *RefreshWorker) Outcomes() <-chan Outcome {
	return w.outcomes
}

// Stats returns a snapshot of the counters.
func (w *RefreshWorker) Stats() WorkerStats {
	return WorkerStats{
		Received: w.received.Load(),
		Ready:    w.ready.Load(),
		Failed:   w.failed.Load(),
		Skipped:  w.skipped.Load(),
	}
}

// Run consumes until ctx is canceled or the queue is closed. Either way
// the queue is sealed on exit and every job not yet taken is marked
// failed, so no movie is left pending by a stopped worker. ErrQueueClosed
// is returned when the subscription ends.
func (w *RefreshWorker) Run(ctx context.Context) error {
	messages := w.queue.Messages()

	var closed atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !w.consumeLoop(ctx, messages) {
				closed.Store(true)
			}
		}()
	}
	wg.Wait()

	w.failUndelivered(context.WithoutCancel(ctx))

	if closed.Load() && ctx.Err() == nil {
		return ErrQueueClosed
	}
	return ctx.Err()
}

// consumeLoop returns false when the subscription channel was closed.
func (w *RefreshWorker) consumeLoop(ctx context.Context, messages <-chan *message.Message) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			w.processMessage(ctx, msg)
		}
	}
}

func (w *RefreshWorker) failUndelivered(ctx context.Context) {
	jobs := w.queue.Seal()
	if len(jobs) == 0 {
		return
	}
	logging.Warn().Int("count", len(jobs)).Msg("Refresh worker stopping, marking undelivered jobs failed")

	for _, job := range jobs {
		w.received.Add(1)
		w.finish(w.abandon(ctx, job))
	}
}

// abandon marks a job that will never be fetched as failed, unless the
// movie was fetched by another path in the meantime.
func (w *RefreshWorker) abandon(ctx context.Context, job RefreshJob) Outcome {
	movie, err := w.store.GetMovie(ctx, job.MovieID)
	if err != nil {
		if w.cfg.IsNotFound(err) {
			return Outcome{Job: job, Result: JobMissing}
		}
		return Outcome{Job: job, Result: JobError, Err: err}
	}
	if !w.staleness.ShouldRefresh(movie.LastFetchedAt) {
		return Outcome{Job: job, Result: JobSkipped}
	}
	if err := w.store.SetDetailsStatus(ctx, job.MovieID, models.DetailsFailed); err != nil {
		logging.Error().Err(err).Str("movie_id", job.MovieID).Msg("Could not mark undelivered refresh job failed")
		return Outcome{Job: job, Result: JobError, Err: err}
	}
	metrics.RecordDetailsOutcome(SourceQueue, string(models.DetailsFailed))
	return Outcome{Job: job, Result: JobFailed, Err: ErrWorkerStopped}
}

// processMessage acks first so the pub/sub hands the next job to another
// goroutine while this one fetches.
func (w *RefreshWorker) processMessage(ctx context.Context, msg *message.Message) {
	w.received.Add(1)
	w.queue.settle(msg.UUID)
	msg.Ack()

	job, err := decodeJob(msg)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed refresh job")
		w.finish(Outcome{Job: job, Result: JobInvalid, Err: err})
		return
	}

	if job.CorrelationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, job.CorrelationID)
	}
	w.finish(w.process(ctx, job))
}

// process fetches under ctx; a job taken just before shutdown still loads
// its movie and stores a failed outcome.
func (w *RefreshWorker) process(ctx context.Context, job RefreshJob) Outcome {
	movie, err := w.store.GetMovie(context.WithoutCancel(ctx), job.MovieID)
	if err != nil {
		if w.cfg.IsNotFound(err) {
			return Outcome{Job: job, Result: JobMissing}
		}
		logging.Ctx(ctx).Error().Err(err).Str("movie_id", job.MovieID).Msg("Refresh job could not load movie")
		return Outcome{Job: job, Result: JobError, Err: err}
	}

	if !w.staleness.ShouldRefresh(movie.LastFetchedAt) {
		return Outcome{Job: job, Result: JobSkipped}
	}

	status, err := resolveDetails(ctx, w.store, w.fetcher, movie, w.cfg.QueuedTimeout, SourceQueue)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("movie_id", job.MovieID).Msg("Refresh job could not store outcome")
		return Outcome{Job: job, Result: JobError, Err: err}
	}
	if status == models.DetailsReady {
		return Outcome{Job: job, Result: JobReady}
	}
	return Outcome{Job: job, Result: JobFailed}
}

func (w *RefreshWorker) finish(o Outcome) {
	switch o.Result {
	case JobReady:
		w.ready.Add(1)
	case JobFailed, JobError:
		w.failed.Add(1)
	default:
		w.skipped.Add(1)
	}
	metrics.RefreshJobs.WithLabelValues(o.Result).Inc()

	select {
	case w.outcomes <- o:
	default:
	}
}

// IsQueueClosed reports whether err came from a closed queue.
func IsQueueClosed(err error) bool {
	return errors.Is(err, ErrQueueClosed)
}
