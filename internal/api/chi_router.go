// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/kinoteka/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware factory uses the defaults.
func NewRouter(handler *Handler, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders)

	r.Handle("/metrics", promhttp.Handler())
	r.With(middleware.NoStore).Get("/api/health", router.handler.Health)

	r.With(
		router.chiMiddleware.RateLimitCustom("webhook", RateLimitWebhook),
		middleware.NoStore,
	).Post("/api/telegram/webhook", router.handler.TelegramWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("api"))
		r.Use(middleware.NoStore)
		r.Use(middleware.Compression)

		r.Post("/import", router.handler.ImportLinks)
		r.Get("/movies", router.handler.Movies)
		r.Get("/genres", router.handler.Genres)
		r.Post("/ratings", router.handler.UpsertRating)

		r.Get("/movie/{id}", router.handler.Movie)
		r.Patch("/movie/{id}", router.handler.UpdateMovie)
		r.Post("/movie/{id}/refresh", router.handler.RefreshMovie)
	})

	return r
}
