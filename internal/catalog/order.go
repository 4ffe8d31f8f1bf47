// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tomtom215/kinoteka/internal/models"
)

// newCollator returns a Russian collator. Collators keep internal buffers
// and must not be shared between goroutines.
func newCollator() *collate.Collator {
	return collate.New(language.Russian)
}

// Order sorts views in place. The sort is stable, so equal keys keep the
// incoming order (newest created first from storage).
func Order(views []models.MovieView, s Sort) {
	switch s {
	case SortTitleAsc, SortTitleDesc:
		col := newCollator()
		titles := make([]string, len(views))
		for i := range views {
			titles[i] = views[i].DisplayTitle()
		}
		idx := indexOrder(len(views), func(a, b int) bool {
			c := col.CompareString(titles[a], titles[b])
			if s == SortTitleDesc {
				return c > 0
			}
			return c < 0
		})
		permute(views, idx)

	case SortYearAsc, SortYearDesc:
		sort.SliceStable(views, func(i, j int) bool {
			return lessNullsLast(intValue(views[i].Year), intValue(views[j].Year), s == SortYearDesc)
		})

	case SortRatingAsc, SortRatingDesc:
		sort.SliceStable(views, func(i, j int) bool {
			return lessNullsLast(views[i].AverageRating, views[j].AverageRating, s == SortRatingDesc)
		})

	default:
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].LatestActivity().After(views[j].LatestActivity())
		})
	}
}

// lessNullsLast orders present values by direction and puts nil after
// every present value.
func lessNullsLast(a, b *float64, desc bool) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	case desc:
		return *a > *b
	default:
		return *a < *b
	}
}

func intValue(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// indexOrder stably sorts the indexes 0..n-1 so precomputed keys can be
// compared by index.
func indexOrder(n int, less func(a, b int) bool) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return less(idx[i], idx[j]) })
	return idx
}

func permute(views []models.MovieView, idx []int) {
	out := make([]models.MovieView, len(views))
	for i, j := range idx {
		out[i] = views[j]
	}
	copy(views, out)
}

// SortGenres orders genre names with Russian collation.
func SortGenres(genres []string) {
	col := newCollator()
	sort.SliceStable(genres, func(i, j int) bool {
		return col.CompareString(genres[i], genres[j]) < 0
	})
}
