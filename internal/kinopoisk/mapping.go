// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package kinopoisk

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kinoteka/internal/models"
)

// maxCast is the number of persons kept from a response.
const maxCast = 10

// apiMovie is the subset of the /v1.4/movie/{id} response we read.
type apiMovie struct {
	Name            *string         `json:"name"`
	AlternativeName *string         `json:"alternativeName"`
	Year            *int            `json:"year"`
	MovieLength     *int            `json:"movieLength"`
	Description     *string         `json:"description"`
	Poster          json.RawMessage `json:"poster"` // object {url} or a bare string
	Genres          []apiNamed      `json:"genres"`
	Countries       []apiNamed      `json:"countries"`
	Rating          *apiRating      `json:"rating"`
	Persons         []apiPerson     `json:"persons"`
}

type apiNamed struct {
	Name *string `json:"name"`
}

type apiRating struct {
	KP *float64 `json:"kp"`
}

type apiPerson struct {
	Name         *string `json:"name"`
	Profession   *string `json:"profession"`
	EnProfession *string `json:"enProfession"`
}

type apiPoster struct {
	URL *string `json:"url"`
}

// toDetails normalizes a response. Each title falls back to the other when
// absent.
func (m *apiMovie) toDetails() *models.MovieDetails {
	d := &models.MovieDetails{
		TitleRu:         firstNonNil(m.Name, m.AlternativeName),
		TitleOriginal:   firstNonNil(m.AlternativeName, m.Name),
		Year:            m.Year,
		DurationMinutes: m.MovieLength,
		Description:     m.Description,
		PosterURL:       posterURL(m.Poster),
		Genres:          names(m.Genres),
		Countries:       names(m.Countries),
		Cast:            cast(m.Persons),
	}
	if m.Rating != nil {
		d.RatingKinopoisk = m.Rating.KP
	}
	return d
}

func firstNonNil(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}

func names(in []apiNamed) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		if n.Name != nil && *n.Name != "" {
			out = append(out, *n.Name)
		}
	}
	return out
}

func cast(in []apiPerson) []models.CastMember {
	if len(in) > maxCast {
		in = in[:maxCast]
	}
	out := make([]models.CastMember, 0, len(in))
	for _, p := range in {
		var name string
		if p.Name != nil {
			name = *p.Name
		}
		out = append(out, models.CastMember{
			Name:         name,
			Profession:   p.Profession,
			EnProfession: p.EnProfession,
		})
	}
	return out
}

// posterURL accepts {"url": "..."} or "..." and ignores anything else.
func posterURL(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '{':
		var p apiPoster
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil
		}
		return p.URL
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return &s
	default:
		return nil
	}
}
