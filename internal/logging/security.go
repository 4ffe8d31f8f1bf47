// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package logging

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// maxLoggedText bounds how much of a Telegram post or query string reaches
// the log.
const maxLoggedText = 200

// WebhookRejection describes why an inbound webhook was refused.
type WebhookRejection string

const (
	RejectSecretNotConfigured WebhookRejection = "secret_not_configured"
	RejectSecretMissing       WebhookRejection = "secret_missing"
	RejectSecretMismatch      WebhookRejection = "secret_mismatch"
)

// SecurityLogger records webhook authorization decisions. It never writes
// the presented or configured secret, only its shape.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger tags entries with component=webhook-auth.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("webhook-auth")}
}

// NewSecurityLoggerWithLogger is NewSecurityLogger on top of logger.
//
//nolint:gocritic // zerolog.Logger is passed by value by design
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "webhook-auth").Logger()}
}

// LogRejected records a refused webhook call.
func (l *SecurityLogger) LogRejected(reason WebhookRejection, ip, userAgent, presented string) {
	ev := l.logger.Warn().
		Str("event", "webhook_rejected").
		Str("reason", string(reason)).
		Str("ip", SanitizeText(ip))
	if userAgent != "" {
		ev = ev.Str("user_agent", truncate(SanitizeText(userAgent), 100))
	}
	if presented != "" {
		ev = ev.Str("presented_secret", MaskSecret(presented))
	}
	ev.Msg("Webhook rejected")
}

// LogAccepted records an authorized webhook call.
func (l *SecurityLogger) LogAccepted(ip string) {
	l.logger.Debug().
		Str("event", "webhook_accepted").
		Str("ip", SanitizeText(ip)).
		Msg("Webhook accepted")
}

// MaskSecret keeps the first and last two characters of long values and
// hides short ones completely.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if utf8.RuneCountInString(secret) <= 8 {
		return "***"
	}
	r := []rune(secret)
	return string(r[:2]) + "***" + string(r[len(r)-2:])
}

// SanitizeText escapes control characters so user supplied text cannot
// forge log lines, then truncates it.
func SanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return truncate(b.String(), maxLoggedText)
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes]) + "..."
}
