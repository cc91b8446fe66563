// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package supervisor runs the long-lived PosMap services under a suture v4
tree with automatic restart and graceful shutdown.

Services are grouped so a failing layer restarts on its own:

	posmap
	├── data-layer
	│   ├── duckdb-checkpoint
	│   └── lockout-janitor
	├── messaging-layer
	│   └── websocket-hub
	└── api-layer
	    └── http-server

Supervisor events (starts, failures, backoff) are logged through
sutureslog, fed by the zerolog-backed slog logger from internal/logging.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewCheckpointService(db, 5*time.Minute))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
