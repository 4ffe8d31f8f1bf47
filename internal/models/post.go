// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package models

import "time"

// Post is a Telegram message that linked to a movie. (ChatID, MessageID)
// is unique and a post is never updated after insertion.
type Post struct {
	ID           string    `json:"id"`
	ChatID       string    `json:"telegramChatId"`
	MessageID    string    `json:"telegramMessageId"`
	PostedAt     time.Time `json:"postedAt"`
	OriginalText *string   `json:"originalText"`
	MovieID      string    `json:"movieId"`
	CreatedAt    time.Time `json:"createdAt"`
}
