// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/kinoteka/internal/logging"
	"github.com/tomtom215/kinoteka/internal/metrics"
	"github.com/tomtom215/kinoteka/internal/models"
)

// RefreshTopic is the in-process topic carrying deferred fetches.
const RefreshTopic = "movie.refresh"

// DefaultQueueBuffer is used when the configured buffer is not positive.
const DefaultQueueBuffer = 256

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("refresh queue closed")

// RefreshJob is one deferred metadata fetch.
type RefreshJob struct {
	MovieID       string           `json:"movie_id"`
	KinopoiskID   int64            `json:"kinopoisk_id"`
	Type          models.MediaType `json:"type"`
	CorrelationID string           `json:"correlation_id,omitempty"`
}

// RefreshQueue is an in-memory watermill pub/sub holding RefreshJobs.
// The subscription is opened at construction so no published job is
// dropped for lack of a subscriber.
//
// Every published job stays pending until a consumer settles it, so jobs
// the pub/sub never handed over can be recovered with Seal.
type RefreshQueue struct {
	pubsub   *gochannel.GoChannel
	messages <-chan *message.Message

	mu      sync.Mutex
	closed  bool
	sealed  bool
	pending map[string]RefreshJob // by message UUID
}

// NewRefreshQueue creates the queue. A nil logger uses the global one.
func NewRefreshQueue(buffer int, logger *slog.Logger) (*RefreshQueue, error) {
	if buffer <= 0 {
		buffer = DefaultQueueBuffer
	}
	if logger == nil {
		logger = logging.NewComponentSlogLogger("refresh-queue")
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(buffer),
	}, watermill.NewSlogLogger(logger))

	messages, err := pubsub.Subscribe(context.Background(), RefreshTopic)
	if err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", RefreshTopic, err)
	}

	return &RefreshQueue{pubsub: pubsub, messages: messages, pending: make(map[string]RefreshJob)}, nil
}

// Enqueue publishes a job. It fails with ErrQueueClosed after Seal or
// Close.
func (q *RefreshQueue) Enqueue(ctx context.Context, job RefreshJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.sealed {
		return ErrQueueClosed
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal refresh job: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if job.CorrelationID != "" {
		msg.Metadata.Set("correlation_id", job.CorrelationID)
	}

	// Registered before publishing: a consumer may settle it at once.
	q.pending[msg.UUID] = job
	if err := q.pubsub.Publish(RefreshTopic, msg); err != nil {
		delete(q.pending, msg.UUID)
		return fmt.Errorf("publish refresh job: %w", err)
	}
	metrics.RefreshQueueDepth.Inc()
	return nil
}

// settle marks a delivered message as taken by a consumer. It reports
// false when the message is unknown or was already handed out by Seal.
func (q *RefreshQueue) settle(uuid string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[uuid]; !ok {
		return false
	}
	delete(q.pending, uuid)
	metrics.RefreshQueueDepth.Dec()
	return true
}

// Seal stops accepting jobs and returns every job not yet taken by a
// consumer. The subscription stays open until Close.
func (q *RefreshQueue) Seal() []RefreshJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sealed = true

	jobs := make([]RefreshJob, 0, len(q.pending))
	for uuid, job := range q.pending {
		jobs = append(jobs, job)
		delete(q.pending, uuid)
		metrics.RefreshQueueDepth.Dec()
	}
	return jobs
}

// Pending returns the number of published jobs not yet taken.
func (q *RefreshQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Messages is the subscription channel. It is closed by Close.
func (q *RefreshQueue) Messages() <-chan *message.Message {
	return q.messages
}

// Close stops accepting jobs and closes the subscription. Safe to call
// more than once.
func (q *RefreshQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	return q.pubsub.Close()
}

func decodeJob(msg *message.Message) (RefreshJob, error) {
	var job RefreshJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		return job, fmt.Errorf("unmarshal refresh job %s: %w", msg.UUID, err)
	}
	if job.MovieID == "" {
		return job, fmt.Errorf("refresh job %s has no movie id", msg.UUID)
	}
	return job, nil
}
