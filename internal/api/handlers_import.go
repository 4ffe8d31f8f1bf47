// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tomtom215/kinoteka/internal/logging"
)

// maxImportLinks bounds one import request.
const maxImportLinks = 5000

// ImportLinks imports pasted links synchronously and returns the report.
//
// The body is {"links": [...]}. A missing or non-array links field counts
// as empty and non-string entries are stringified.
func (h *Handler) ImportLinks(w http.ResponseWriter, r *http.Request) {
	var body interface{}
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, http.StatusBadRequest, msgInvalidJSON, nil)
		return
	}

	lines := importLines(body)
	if len(lines) > maxImportLinks {
		respondError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("At most %d links per import", maxImportLinks), nil)
		return
	}

	report, err := h.ingest.Import(r.Context(), lines)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, msgInternal, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("lines", len(lines)).
		Int("imported", report.Imported).
		Msg("Bulk import completed")
	respondJSON(w, http.StatusOK, report)
}

// importLines extracts the links array from a decoded body.
func importLines(body interface{}) []string {
	obj, ok := body.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := obj["links"].([]interface{})
	if !ok {
		return nil
	}

	lines := make([]string, 0, len(raw))
	for _, v := range raw {
		lines = append(lines, stringify(v))
	}
	return lines
}

// stringify renders a decoded JSON value the way a browser's String()
// would for the scalar cases.
func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
