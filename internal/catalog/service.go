// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package catalog

import (
	"context"
	"fmt"

	"github.com/tomtom215/kinoteka/internal/kinopoisk"
	"github.com/tomtom215/kinoteka/internal/models"
)

// Source loads view records. *database.DB satisfies it.
type Source interface {
	ListMovieViews(ctx context.Context) ([]models.MovieView, error)
	GetMovieView(ctx context.Context, id string) (*models.MovieView, error)
	Genres(ctx context.Context) ([]string, error)
}

// Service answers list, detail and genre queries.
type Service struct {
	src     Source
	posters kinopoisk.PosterAllowlist
}

// NewService builds a Service. posters decides PosterAllowed on every view.
func NewService(src Source, posters kinopoisk.PosterAllowlist) *Service {
	return &Service{src: src, posters: posters}
}

// List returns the filtered, ordered views.
func (s *Service) List(ctx context.Context, q Query) ([]models.MovieView, error) {
	all, err := s.src.ListMovieViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	out := make([]models.MovieView, 0, len(all))
	for i := range all {
		v := &all[i]
		s.decorate(v)
		if q.Match(v) {
			out = append(out, *v)
		}
	}
	Order(out, q.Sort)
	return out, nil
}

// Get returns one view. Errors from the source pass through unchanged so
// callers can test for not-found.
func (s *Service) Get(ctx context.Context, id string) (*models.MovieView, error) {
	v, err := s.src.GetMovieView(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(v)
	return v, nil
}

// Genres returns the distinct genres in collation order.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	genres, err := s.src.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	if genres == nil {
		genres = []string{}
	}
	SortGenres(genres)
	return genres, nil
}

func (s *Service) decorate(v *models.MovieView) {
	v.AverageRating = AverageRating(v.Ratings)
	v.PosterAllowed = s.posters.Allows(v.PosterURL)
}
