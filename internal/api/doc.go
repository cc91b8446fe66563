// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package api provides the HTTP REST API for PosMap.

Routes:

  - /api/v1/health, /health/live, /health/ready: probes
  - /api/v1/auth/login, /auth/register: Auth Gateway (flat JSON bodies)
  - /api/v1/points, /points/{id}, /points/sales-by-zone: Data Gateway
  - /api/v1/analytics/{summary,coverage,quality,dashboard,series,top,trend}
  - /api/v1/report, /report/export.csv
  - /api/v1/ws: point change feed
  - /metrics: Prometheus

Every response except the Auth Gateway and the CSV export uses the
APIResponse envelope. Errors carry a machine-readable code and the request
ID:

	{"success":false,"error":{"code":"NOT_FOUND","message":"...","request_id":"..."},"meta":{...}}

Point mutations require a bearer token unless security.auth_mode is
"none". Each successful mutation clears the aggregate cache and is
broadcast on the WebSocket hub.

Usage:

	handler := api.NewHandler(db, authService, cfg, hub)
	defer handler.Close()
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: api.NewRouter(handler).Setup()}
*/
package api
