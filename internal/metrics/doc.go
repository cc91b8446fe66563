// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
are exposed at /metrics in Prometheus text format. Every name carries the
posmap_ prefix, omitted below:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: Requests in flight (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type (timeout, canceled, no_rows, conn_done, other)

Domain Metrics:
  - points: Stored points of sale (gauge)
  - point_mutations_total: Creates, updates and deletes (counter)
  - auth_login_attempts_total: Logins by outcome (counter)
  - auth_registrations_total: Registrations by outcome (counter)
  - auth_account_lockouts_total: Lockouts (counter)

Infrastructure Metrics:
  - cache_hits_total, cache_misses_total, cache_entries, cache_evictions_total
  - websocket_connections, websocket_messages_sent_total, websocket_errors_total
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_consecutive_failures, circuit_breaker_state_transitions_total

The circuit breaker collectors are fed by the posctl HTTP client; the rest by
the server.

# Usage Example

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	metrics.RecordDBQuery("select", "points_of_sale", time.Since(start), err)
*/
package metrics
