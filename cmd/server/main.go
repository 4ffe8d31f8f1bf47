// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/kinoteka/internal/api"
	"github.com/tomtom215/kinoteka/internal/catalog"
	"github.com/tomtom215/kinoteka/internal/config"
	"github.com/tomtom215/kinoteka/internal/database"
	"github.com/tomtom215/kinoteka/internal/ingest"
	"github.com/tomtom215/kinoteka/internal/kinopoisk"
	"github.com/tomtom215/kinoteka/internal/logging"
	"github.com/tomtom215/kinoteka/internal/supervisor"
	"github.com/tomtom215/kinoteka/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("driver", cfg.Database.Driver).
		Str("ack_mode", cfg.Telegram.AckMode).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting kinoteka")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	client := kinopoisk.NewClient(&cfg.Kinopoisk)
	if !client.APIKeyConfigured() {
		logging.Warn().Msg("KINOPOISK_API_KEY is not set; metadata fetches will fail")
	}
	if cfg.Telegram.WebhookSecret == "" {
		logging.Warn().Msg("TELEGRAM_WEBHOOK_SECRET is not set; every webhook call will be rejected")
	}

	isNotFound := func(err error) bool { return errors.Is(err, database.ErrNotFound) }

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	opts := ingest.OptionsFromConfig(cfg)
	opts.IsNotFound = isNotFound

	if cfg.Telegram.AckMode == config.AckAsync {
		queue, err := ingest.NewRefreshQueue(cfg.Ingest.QueueBuffer, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := queue.Close(); err != nil {
				logging.Warn().Err(err).Msg("Error closing refresh queue")
			}
		}()
		opts.Queue = queue

		worker := ingest.NewRefreshWorker(queue, db, client, ingest.WorkerConfig{
			Workers:       cfg.Ingest.Workers,
			QueuedTimeout: cfg.Kinopoisk.QueuedTimeout,
			StaleAfter:    cfg.Kinopoisk.StaleAfter,
			IsNotFound:    isNotFound,
		})
		tree.AddIngestService(services.NewRefreshWorkerService(worker))
	}

	ingestSvc, err := ingest.NewService(db, client, opts)
	if err != nil {
		return err
	}
	catalogSvc := catalog.NewService(db, kinopoisk.PosterAllowlist(cfg.Kinopoisk.PosterHosts))

	handler := api.NewHandler(db, ingestSvc, catalogSvc, client, cfg)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
