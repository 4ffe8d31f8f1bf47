// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package kinopoisk

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tomtom215/kinoteka/internal/models"
)

var linkPattern = regexp.MustCompile(`(?i)kinopoisk\.ru/(film|series)/(\d+)`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Link identifies one title on Kinopoisk.
type Link struct {
	ID   int64
	Type models.MediaType
}

// Key is the dedup key "<type>:<id>".
func (l Link) Key() string {
	return string(l.Type) + ":" + strconv.FormatInt(l.ID, 10)
}

// ParseLink returns the first link found in text. Whitespace runs are
// collapsed first so a URL split across lines by a client still matches.
func ParseLink(text string) (Link, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Link{}, false
	}
	m := linkPattern.FindStringSubmatch(whitespaceRun.ReplaceAllString(text, " "))
	if m == nil {
		return Link{}, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || id <= 0 {
		return Link{}, false
	}
	mediaType := models.MediaFilm
	if strings.EqualFold(m[1], string(models.MediaSeries)) {
		mediaType = models.MediaSeries
	}
	return Link{ID: id, Type: mediaType}, true
}

// ExtractLink scans text line by line and returns the first line's match.
// When no single line matches it falls back to the whole text.
func ExtractLink(text string) (Link, bool) {
	if text == "" {
		return Link{}, false
	}
	for _, line := range strings.Split(text, "\n") {
		if l, ok := ParseLink(strings.TrimSuffix(line, "\r")); ok {
			return l, true
		}
	}
	return ParseLink(text)
}
