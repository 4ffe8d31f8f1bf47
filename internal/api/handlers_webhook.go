// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/tomtom215/kinoteka/internal/logging"
	"github.com/tomtom215/kinoteka/internal/metrics"
	"github.com/tomtom215/kinoteka/internal/models"
)

// TelegramSecretHeader carries the secret_token set with setWebhook.
const TelegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramWebhook ingests one Telegram update.
//
// The secret is checked before the body is read. Once authorized, any
// well-formed update is acknowledged with {"ok":true}, including posts
// without a Kinopoisk link, so Telegram does not redeliver it.
func (h *Handler) TelegramWebhook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	if reason, ok := h.authorizeWebhook(r); !ok {
		metrics.WebhookRejections.WithLabelValues(string(reason)).Inc()
		h.security.LogRejected(reason, r.RemoteAddr, r.UserAgent(), r.Header.Get(TelegramSecretHeader))
		respondError(w, r, http.StatusUnauthorized, msgUnauthorized, nil)
		return
	}
	h.security.LogAccepted(r.RemoteAddr)

	var update models.TelegramUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondError(w, r, http.StatusBadRequest, msgInvalidJSON, nil)
		return
	}

	results, err := h.ingest.IngestUpdate(r.Context(), &update)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, msgInternal, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("update_id", update.UpdateID).
		Int("links", len(results)).
		Str("ack_mode", h.ingest.AckMode()).
		Msg("Telegram update processed")
	respondOK(w)
}

// authorizeWebhook compares the presented secret in constant time.
func (h *Handler) authorizeWebhook(r *http.Request) (logging.WebhookRejection, bool) {
	configured := h.config.Telegram.WebhookSecret
	if strings.TrimSpace(configured) == "" {
		return logging.RejectSecretNotConfigured, false
	}
	presented := r.Header.Get(TelegramSecretHeader)
	if presented == "" {
		return logging.RejectSecretMissing, false
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) != 1 {
		return logging.RejectSecretMismatch, false
	}
	return "", true
}
