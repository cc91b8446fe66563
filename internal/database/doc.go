// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package database provides DuckDB persistence for points of sale and the local
user accounts behind the auth endpoints.

# Schema

The schema is created by versioned migrations tracked in schema_migrations.
Each migration runs exactly once:

  - points_of_sale: id (sequence), latitude, longitude (nullable), description,
    sale, zone, created_at, updated_at (nullable)
  - app_users: id (sequence), username (unique), display_name, password_hash,
    zone, active, is_admin, created_at

All timestamps are stored as UTC TIMESTAMP values.

# Errors

Lookups and mutations report missing rows with ErrPointNotFound or
ErrUserNotFound; registering an existing username yields ErrUsernameTaken.
Callers check them with errors.Is.

# Metrics

Every query records its latency and outcome through internal/metrics.

# Usage

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	page, total, err := db.ListPoints(ctx, 0, 50)
*/
package database
