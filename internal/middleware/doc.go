// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package middleware provides the infrastructure middleware of the HTTP API.

Key Components:

  - RequestID: request and correlation IDs in the logging context
  - AccessLog: one zerolog line per request
  - PrometheusMetrics: request totals, latency and in-flight gauge, labelled
    by chi route pattern
  - Compression: gzip for clients that accept it

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

Authentication and security headers live in internal/auth; CORS and rate
limiting come from go-chi/cors and go-chi/httprate in internal/api.
*/
package middleware
