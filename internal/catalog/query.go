// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package catalog

import (
	"math"
	"net/url"
	"strings"

	"github.com/tomtom215/kinoteka/internal/models"
)

// Sort selects the list order.
type Sort string

const (
	SortTitleAsc   Sort = "title_asc"
	SortTitleDesc  Sort = "title_desc"
	SortYearDesc   Sort = "year_desc"
	SortYearAsc    Sort = "year_asc"
	SortRatingDesc Sort = "rating_desc"
	SortRatingAsc  Sort = "rating_asc"
	SortLatest     Sort = "created_desc"
)

// ParseSort falls back to SortLatest for empty or unknown values.
func ParseSort(s string) Sort {
	switch v := Sort(strings.TrimSpace(s)); v {
	case SortTitleAsc, SortTitleDesc, SortYearDesc, SortYearAsc, SortRatingDesc, SortRatingAsc, SortLatest:
		return v
	default:
		return SortLatest
	}
}

// Unrated selects movies missing a rating.
type Unrated string

const (
	UnratedNone Unrated = ""
	UnratedMe   Unrated = "me"
	UnratedHer  Unrated = "her"
	UnratedBoth Unrated = "both"
)

// Query is a parsed list request. Zero values disable a filter.
type Query struct {
	Status    models.WatchStatus
	UnratedBy Unrated
	Genre     string
	Search    string
	Sort      Sort
}

// ParseQuery reads status, unratedBy, genre, search and sort. Unknown
// status and unratedBy values are ignored rather than rejected.
func ParseQuery(v url.Values) Query {
	q := Query{
		Genre:  strings.TrimSpace(v.Get("genre")),
		Search: strings.TrimSpace(v.Get("search")),
		Sort:   ParseSort(v.Get("sort")),
	}
	if s, ok := models.ParseWatchStatus(v.Get("status")); ok {
		q.Status = s
	}
	switch u := Unrated(v.Get("unratedBy")); u {
	case UnratedMe, UnratedHer, UnratedBoth:
		q.UnratedBy = u
	}
	return q
}

// AverageRating is the mean of the non-null ratings rounded to one
// decimal, or nil when nobody rated.
func AverageRating(ratings []models.Rating) *float64 {
	sum, n := 0, 0
	for i := range ratings {
		if ratings[i].Rating != nil {
			sum += *ratings[i].Rating
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(float64(sum)/float64(n)*10) / 10
	return &avg
}

// Match reports whether v passes every filter in q.
func (q Query) Match(v *models.MovieView) bool {
	if q.Status != "" && v.Status != q.Status {
		return false
	}
	if !q.matchUnrated(v) {
		return false
	}
	if q.Genre != "" && !contains(v.Genres, q.Genre) {
		return false
	}
	if q.Search != "" && !matchTitle(v, strings.ToLower(q.Search)) {
		return false
	}
	return true
}

func (q Query) matchUnrated(v *models.MovieView) bool {
	switch q.UnratedBy {
	case UnratedMe:
		return !rated(v, models.RaterMe)
	case UnratedHer:
		return !rated(v, models.RaterHer)
	case UnratedBoth:
		return !rated(v, models.RaterMe) && !rated(v, models.RaterHer)
	default:
		return true
	}
}

func rated(v *models.MovieView, k models.RaterKey) bool {
	r := v.RatingBy(k)
	return r != nil && r.Rating != nil
}

func matchTitle(v *models.MovieView, needle string) bool {
	for _, t := range []*string{v.TitleRu, v.TitleOriginal} {
		if t != nil && strings.Contains(strings.ToLower(*t), needle) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
