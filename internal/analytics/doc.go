// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package analytics computes derived views over a list of points of sale.

Every function is a pure function of its arguments: no I/O, no logging, no
package state. Recomputing on each input change is the expected usage, both on
the server (analytics endpoints) and in posctl (local dashboards).

# Views

  - SalesSummary: total, average, median and count over valid sale amounts
  - GeoCoverage: geocoded percentage, mean nearest-neighbor distance and
    per-zone centroid/dispersion
  - TimeWindowDeltas: this week against the previous week
  - DailySeries: a fixed-length, zero-filled trailing series of daily samples
  - Dashboard: the combined KPI block shown by the dashboard views
  - DataQuality: freshness and completeness percentages
  - SalesByZone, TopPoints, TopZone, SalesTrend: chart inputs

# Numeric Rules

Records with a non-finite or negative sale are excluded from SalesSummary.
The dashboard-level aggregates (Dashboard, TimeWindowDeltas, DailySeries,
SalesByZone) count such records with a sale of 0. Records without both
coordinates are excluded from geo metrics but still count everywhere else.
Empty input always yields zero values, never NaN.

# Calendar Days

Day boundaries come from local calendar dates in the location of the reference
time passed by the caller. Two timestamps on the same local date always share
a bucket, independent of time of day or DST transitions.
*/
package analytics
