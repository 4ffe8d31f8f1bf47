// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/kinoteka/internal/models"
)

var errFakeNotFound = errors.New("fake: not found")

func isFakeNotFound(err error) bool { return errors.Is(err, errFakeNotFound) }

// memStore mimics the database semantics the pipeline relies on: an upsert
// of an existing movie bumps updated_at, and a post is unique per
// (chat, message).
type memStore struct {
	mu     sync.Mutex
	clock  time.Time
	nextID int
	movies map[string]*models.Movie
	byKey  map[string]string
	posts  map[string]*models.Post

	upsertErr error
	statusErr error
}

func newMemStore() *memStore {
	return &memStore{
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		movies: make(map[string]*models.Movie),
		byKey:  make(map[string]string),
		posts:  make(map[string]*models.Post),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *memStore) UpsertMovie(_ context.Context, kpID int64, mediaType models.MediaType) (*models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	key := fmt.Sprintf("%s:%d", mediaType, kpID)
	now := s.tick()
	if id, ok := s.byKey[key]; ok {
		m := s.movies[id]
		m.UpdatedAt = now
		cp := *m
		return &cp, nil
	}
	s.nextID++
	m := &models.Movie{
		ID:            fmt.Sprintf("m%d", s.nextID),
		KinopoiskID:   kpID,
		Type:          mediaType,
		Status:        models.StatusQueued,
		DetailsStatus: models.DetailsPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.movies[m.ID] = m
	s.byKey[key] = m.ID
	cp := *m
	return &cp, nil
}

func (s *memStore) GetMovie(_ context.Context, id string) (*models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return nil, errFakeNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) ApplyDetails(_ context.Context, id string, d *models.MovieDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return errFakeNotFound
	}
	now := s.tick()
	m.TitleRu = d.TitleRu
	m.TitleOriginal = d.TitleOriginal
	m.Year = d.Year
	m.Genres = d.Genres
	m.RatingKinopoisk = d.RatingKinopoisk
	m.DetailsStatus = models.DetailsReady
	m.LastFetchedAt = &now
	m.UpdatedAt = now
	return nil
}

func (s *memStore) SetDetailsStatus(_ context.Context, id string, status models.DetailsStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return s.statusErr
	}
	m, ok := s.movies[id]
	if !ok {
		return errFakeNotFound
	}
	m.DetailsStatus = status
	m.UpdatedAt = s.tick()
	return nil
}

func (s *memStore) InsertPost(_ context.Context, p *models.Post) (*models.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := p.ChatID + "/" + p.MessageID
	if existing, ok := s.posts[key]; ok {
		cp := *existing
		return &cp, false, nil
	}
	stored := *p
	stored.ID = "p" + key
	stored.CreatedAt = s.tick()
	s.posts[key] = &stored
	cp := stored
	return &cp, true, nil
}

func (s *memStore) movie(id string) models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.movies[id]
}

func (s *memStore) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// markFetched makes a movie look freshly fetched.
func (s *memStore) markFetched(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.movies[id]
	m.LastFetchedAt = &at
	m.DetailsStatus = models.DetailsReady
}

// stubFetcher returns details for ids in ok and nil for everything else.
type stubFetcher struct {
	mu       sync.Mutex
	ok       map[int64]bool
	calls    []int64
	timeouts []time.Duration
}

func newStubFetcher(ids ...int64) *stubFetcher {
	f := &stubFetcher{ok: make(map[int64]bool)}
	for _, id := range ids {
		f.ok[id] = true
	}
	return f
}

func (f *stubFetcher) FetchDetails(_ context.Context, id int64, _ models.MediaType, timeout time.Duration) *models.MovieDetails {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	f.timeouts = append(f.timeouts, timeout)
	if !f.ok[id] {
		return nil
	}
	title := fmt.Sprintf("Фильм %d", id)
	year := 2000
	return &models.MovieDetails{TitleRu: &title, Year: &year, Genres: []string{"драма"}}
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type failingQueue struct{}

func (failingQueue) Enqueue(context.Context, RefreshJob) error { return errors.New("queue full") }

type recordingQueue struct {
	mu   sync.Mutex
	jobs []RefreshJob
}

func (q *recordingQueue) Enqueue(_ context.Context, job RefreshJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func strPtr(s string) *string { return &s }

// slowFetcher takes delay per fetch and gives up when ctx ends.
type slowFetcher struct {
	delay   time.Duration
	succeed bool

	mu    sync.Mutex
	calls int
}

func (f *slowFetcher) FetchDetails(ctx context.Context, id int64, _ models.MediaType, _ time.Duration) *models.MovieDetails {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil
	}
	if !f.succeed {
		return nil
	}
	title := fmt.Sprintf("Фильм %d", id)
	return &models.MovieDetails{TitleRu: &title}
}

// ctxStore fails every call made with a finished context, as a real
// database driver does.
type ctxStore struct {
	*memStore
}

func (s ctxStore) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.memStore.GetMovie(ctx, id)
}

func (s ctxStore) ApplyDetails(ctx context.Context, id string, d *models.MovieDetails) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.memStore.ApplyDetails(ctx, id, d)
}

func (s ctxStore) SetDetailsStatus(ctx context.Context, id string, status models.DetailsStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.memStore.SetDetailsStatus(ctx, id, status)
}

func (s *memStore) movieCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movies)
}
