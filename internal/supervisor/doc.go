// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

/*
Package supervisor runs kinoteka's long-lived services under a suture v4
tree.

	RootSupervisor ("kinoteka")
	├── IngestSupervisor ("ingest-layer")
	│   └── RefreshWorkerService (async ack mode only)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service is restarted with backoff inside its own layer, so a
refresh worker failure never takes the HTTP server down with it. Tree
events are logged through sutureslog.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddIngestService(services.NewRefreshWorkerService(worker))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)

See the services subpackage for the wrappers.
*/
package supervisor
