// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package config loads the PosMap server configuration.

Values are layered with Koanf v2: built-in defaults, then an optional YAML
file (CONFIG_PATH, config.yaml, config.yml or /etc/posmap/config.yaml), then
environment variables. Only the variables listed below are read.

# Environment Variables

Database:
  - DUCKDB_PATH: database file (default: /data/posmap.duckdb)
  - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 1GB)
  - DUCKDB_THREADS: worker threads, 0 for NumCPU (default: 0)
  - SEED_MOCK_DATA: insert demo points into an empty table (default: false)

Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:3857)
  - HTTP_TIMEOUT: request timeout (default: 30s)
  - ENVIRONMENT: development, staging or production (default: development)
  - SERVER_TIMEZONE: zone defining "today" for analytics (default: America/Mexico_City)

API:
  - API_DEFAULT_PAGE_SIZE (default: 50)
  - API_MAX_PAGE_SIZE (default: 500)

Security:
  - AUTH_MODE: jwt or none (default: jwt)
  - JWT_SECRET: HMAC key, at least 32 characters in production
  - SESSION_TIMEOUT: token lifetime (default: 24h)
  - ADMIN_USERNAME, ADMIN_PASSWORD: account created or reset at startup
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS: comma-separated origins (default: *)
  - LOCKOUT_STORE: memory or badger (default: memory)
  - LOCKOUT_PATH: BadgerDB directory for the badger lockout store

Cache:
  - CACHE_TTL: lifetime of cached aggregates (default: 30s)

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	if cfg.ShouldWarnAboutCORS() {
	    logging.Warn().Msg("CORS allows any origin")
	}
*/
package config
