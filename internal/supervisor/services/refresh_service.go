// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/kinoteka/internal/ingest"
	"github.com/tomtom215/kinoteka/internal/logging"
)

// RefreshRunner is satisfied by *ingest.RefreshWorker.
type RefreshRunner interface {
	Run(ctx context.Context) error
	Outcomes() <-chan ingest.Outcome
	Stats() ingest.WorkerStats
}

// RefreshWorkerService runs the async metadata refresh worker.
//
// A closed queue is final: the service returns suture.ErrDoNotRestart so
// the supervisor does not spin on an empty channel. Any other early exit
// is a failure and is restarted with backoff.
type RefreshWorkerService struct {
	worker RefreshRunner
	name   string
}

// NewRefreshWorkerService wraps worker.
func NewRefreshWorkerService(worker RefreshRunner) *RefreshWorkerService {
	return &RefreshWorkerService{
		worker: worker,
		name:   "refresh-worker",
	}
}

// Serve implements suture.Service. Job outcomes are consumed while the
// worker runs; failed ones are logged.
func (s *RefreshWorkerService) Serve(ctx context.Context) error {
	done := make(chan struct{})
	reported := make(chan struct{})
	go func() {
		defer close(reported)
		s.reportOutcomes(done)
	}()

	err := s.worker.Run(ctx)
	close(done)
	<-reported

	stats := s.worker.Stats()
	logging.Info().
		Str("service", s.name).
		Int64("received", stats.Received).
		Int64("ready", stats.Ready).
		Int64("failed", stats.Failed).
		Int64("skipped", stats.Skipped).
		Msg("Refresh worker stopped")

	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case ingest.IsQueueClosed(err):
		logging.Info().Str("service", s.name).Msg("Refresh queue closed, worker stopped")
		return suture.ErrDoNotRestart
	case err != nil:
		return fmt.Errorf("refresh worker: %w", err)
	default:
		return errors.New("refresh worker exited unexpectedly")
	}
}

// reportOutcomes reads outcomes until done, then drains what is left
// without blocking.
func (s *RefreshWorkerService) reportOutcomes(done <-chan struct{}) {
	outcomes := s.worker.Outcomes()
	for {
		select {
		case o := <-outcomes:
			s.report(o)
		case <-done:
			for {
				select {
				case o := <-outcomes:
					s.report(o)
				default:
					return
				}
			}
		}
	}
}

func (s *RefreshWorkerService) report(o ingest.Outcome) {
	switch o.Result {
	case ingest.JobFailed, ingest.JobError, ingest.JobInvalid:
		ev := logging.Warn().
			Str("service", s.name).
			Str("movie_id", o.Job.MovieID).
			Int64("kinopoisk_id", o.Job.KinopoiskID).
			Str("result", o.Result)
		if o.Err != nil {
			ev = ev.Err(o.Err)
		}
		ev.Msg("Deferred metadata fetch failed")
	default:
		logging.Debug().
			Str("service", s.name).
			Str("movie_id", o.Job.MovieID).
			Str("result", o.Result).
			Msg("Deferred metadata fetch finished")
	}
}

func (s *RefreshWorkerService) String() string {
	return s.name
}
