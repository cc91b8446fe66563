// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Command server runs the PosMap HTTP API.

The server owns the DuckDB point registry and exposes it through the Data
Gateway (/api/v1/points), the Auth Gateway (/api/v1/auth), the analytics
and report views, a WebSocket change feed and Prometheus metrics. Long-lived
components run under a suture v4 tree:

	posmap
	├── data-layer
	│   ├── duckdb-checkpoint
	│   └── lockout-janitor
	├── messaging-layer
	│   └── websocket-hub
	└── api-layer
	    └── http-server

# Configuration

Settings come from built-in defaults, then an optional YAML file
(CONFIG_PATH, ./config.yaml, /etc/posmap/config.yaml), then environment
variables. The most common ones:

	DUCKDB_PATH=/data/posmap.duckdb
	HTTP_PORT=8080
	AUTH_MODE=jwt               # or none for local development
	JWT_SECRET=$(openssl rand -base64 32)
	ADMIN_USERNAME=admin        # created or rotated at startup
	ADMIN_PASSWORD=...
	LOCKOUT_STORE=badger        # keep lockouts across restarts
	LOCKOUT_PATH=/data/lockout
	SERVER_TIMEZONE=America/Mexico_City

Outside production an empty JWT_SECRET is replaced by a random per-process
secret, so tokens do not survive a restart.

# Signals

SIGINT and SIGTERM cancel the tree. The HTTP server drains for up to ten
seconds, the hub closes every subscriber and DuckDB takes a final
checkpoint before the database is closed.
*/
package main
