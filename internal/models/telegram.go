// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package models

import (
	"strconv"
	"strings"
	"time"
)

// TelegramUpdate is the subset of a Bot API update that kinoteka reads.
type TelegramUpdate struct {
	UpdateID    int64            `json:"update_id"`
	ChannelPost *TelegramMessage `json:"channel_post,omitempty"`
	Message     *TelegramMessage `json:"message,omitempty"`
}

// Messages returns channel_post then message, skipping absent ones.
func (u *TelegramUpdate) Messages() []*TelegramMessage {
	out := make([]*TelegramMessage, 0, 2)
	if u.ChannelPost != nil {
		out = append(out, u.ChannelPost)
	}
	if u.Message != nil {
		out = append(out, u.Message)
	}
	return out
}

// TelegramChat identifies the chat a message was posted in.
type TelegramChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// TelegramMessage is a channel post or a regular message.
type TelegramMessage struct {
	MessageID int64        `json:"message_id"`
	Chat      TelegramChat `json:"chat"`
	Date      int64        `json:"date,omitempty"`
	Text      *string      `json:"text,omitempty"`
	Caption   *string      `json:"caption,omitempty"`
}

// Body returns the trimmed text, falling back to the caption when there is
// no text field.
func (m *TelegramMessage) Body() string {
	switch {
	case m.Text != nil:
		return strings.TrimSpace(*m.Text)
	case m.Caption != nil:
		return strings.TrimSpace(*m.Caption)
	default:
		return ""
	}
}

// PostedAt converts the unix date; a zero date means now.
func (m *TelegramMessage) PostedAt(now time.Time) time.Time {
	if m.Date == 0 {
		return now
	}
	return time.Unix(m.Date, 0).UTC()
}

// ChatKey is the chat id as stored.
func (m *TelegramMessage) ChatKey() string {
	return strconv.FormatInt(m.Chat.ID, 10)
}

// MessageKey is the message id as stored.
func (m *TelegramMessage) MessageKey() string {
	return strconv.FormatInt(m.MessageID, 10)
}
