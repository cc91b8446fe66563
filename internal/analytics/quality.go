// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package analytics

import (
	"strings"
	"time"

	"github.com/tomtom215/posmap/internal/models"
)

// FreshWindow is the age under which a record counts as recently updated.
const FreshWindow = 90 * 24 * time.Hour

// Quality reports freshness and completeness of the point set.
type Quality struct {
	MeanAgeDays   float64 `json:"mean_age_days"`
	PctUpdated90d float64 `json:"pct_updated_90d"`
	PctValidZone  float64 `json:"pct_valid_zone"`
	PctValidSale  float64 `json:"pct_valid_sale"`
}

// DataQuality measures the point set at now. Age is taken from updated_at,
// falling back to created_at; records with neither are left out of the mean
// age but still count in the denominators of the percentages. A zone is
// valid when it is neither blank nor the unassigned label, so raw rows and
// normalized points give the same answer.
func DataQuality(points []models.PointOfSale, now time.Time) Quality {
	var q Quality
	if len(points) == 0 {
		return q
	}

	ages := make([]float64, 0, len(points))
	var fresh, validZone, validSale int
	for i := range points {
		p := &points[i]
		if ts := p.LastTouched(); !ts.IsZero() {
			age := now.Sub(ts)
			ages = append(ages, age.Hours()/24)
			if age <= FreshWindow {
				fresh++
			}
		}
		if z := strings.TrimSpace(p.Zone); z != "" && z != models.UnassignedZone {
			validZone++
		}
		if isFinite(p.Sale) {
			validSale++
		}
	}

	n := float64(len(points))
	q.MeanAgeDays = mean(ages)
	q.PctUpdated90d = float64(fresh) / n * 100
	q.PctValidZone = float64(validZone) / n * 100
	q.PctValidSale = float64(validSale) / n * 100
	return q
}
