// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package models

import "time"

// MovieView is a Movie joined with its ratings and newest post.
// TelegramPosts holds at most one element.
type MovieView struct {
	Movie
	Ratings       []Rating `json:"ratings"`
	TelegramPosts []Post   `json:"telegramPosts"`
	AverageRating *float64 `json:"averageRating"`
	PosterAllowed bool     `json:"posterAllowed"`
}

// RatingBy returns the rating row of rater k, or nil.
func (v *MovieView) RatingBy(k RaterKey) *Rating {
	for i := range v.Ratings {
		if v.Ratings[i].UserKey == k {
			return &v.Ratings[i]
		}
	}
	return nil
}

// LatestActivity is the newest post time, or the creation time when the
// movie never appeared in a post.
func (v *MovieView) LatestActivity() time.Time {
	if len(v.TelegramPosts) > 0 {
		return v.TelegramPosts[0].PostedAt
	}
	return v.CreatedAt
}
