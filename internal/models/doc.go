// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package models defines the canonical data structures shared by every PosMap layer.

Key Components:

  - PointOfSale: a geocoded point of sale with description, sale amount and zone
  - PointInput: the write payload for create/update, with normalization rules
  - ZoneSales: per-zone sale totals produced by the Data Gateway
  - User / AppUser: the authenticated identity and its stored account row
  - LoginRequest, LoginResponse, RegisterRequest, AuthResponse: Auth Gateway DTOs

Canonical Shape:

Every record that enters the system is converted to PointOfSale exactly once, at
the ingestion boundary (database scan on the server, internal/client on the CLI).
Downstream code, internal/analytics in particular, never re-derives fields from
alternative input shapes.

Optional coordinates are pointers; a nil Latitude or Longitude means "not
geocoded". A non-finite Sale (NaN or Inf) marks an unusable amount and is only
ever produced by the client normalizer, never persisted.

Thread Safety:

Models are plain data. They carry no locks and are safe for concurrent reads.
*/
package models
