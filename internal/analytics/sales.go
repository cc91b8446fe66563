// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/posmap/internal/models"
)

// Summary holds aggregate sale statistics.
type Summary struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Count   int     `json:"count"`
}

// SalesSummary aggregates the finite, non-negative sales in points.
// Count is the number of valid sales, not the input length.
func SalesSummary(points []models.PointOfSale) Summary {
	sales := make([]float64, 0, len(points))
	for i := range points {
		if points[i].HasValidSale() {
			sales = append(sales, points[i].Sale)
		}
	}

	s := Summary{Count: len(sales)}
	if len(sales) == 0 {
		return s
	}
	s.Total = sum(sales)
	s.Average = s.Total / float64(len(sales))
	s.Median = median(sales)
	return s
}

// Pct returns the percentage change from prev to cur.
// A non-positive prev yields 100 when cur is positive and 0 otherwise.
func Pct(cur, prev float64) float64 {
	if prev <= 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return (cur - prev) / prev * 100
}

// ZoneOf returns the trimmed zone of p, or models.UnassignedZone when blank.
func ZoneOf(p *models.PointOfSale) string {
	z := strings.TrimSpace(p.Zone)
	if z == "" {
		return models.UnassignedZone
	}
	return z
}

// SalesByZone groups points by zone and orders the totals descending.
// Ties are ordered by zone name so the result is deterministic.
func SalesByZone(points []models.PointOfSale) []models.ZoneSales {
	index := make(map[string]int)
	out := make([]models.ZoneSales, 0)
	for i := range points {
		z := ZoneOf(&points[i])
		idx, ok := index[z]
		if !ok {
			idx = len(out)
			index[z] = idx
			out = append(out, models.ZoneSales{Zone: z})
		}
		out[idx].TotalSale += saleOrZero(points[i].Sale)
		out[idx].Count++
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalSale != out[j].TotalSale {
			return out[i].TotalSale > out[j].TotalSale
		}
		return out[i].Zone < out[j].Zone
	})
	return out
}

// TopZone returns the zone with the largest total. The first entry wins ties.
func TopZone(zoneTotals []models.ZoneSales) (models.ZoneSales, bool) {
	if len(zoneTotals) == 0 {
		return models.ZoneSales{}, false
	}
	best := zoneTotals[0]
	for _, z := range zoneTotals[1:] {
		if z.TotalSale > best.TotalSale {
			best = z
		}
	}
	return best, true
}

// TopPoints returns up to n points ordered by sale descending.
// Invalid sales rank as 0; input order breaks ties.
func TopPoints(points []models.PointOfSale, n int) []models.PointOfSale {
	if n <= 0 || len(points) == 0 {
		return []models.PointOfSale{}
	}
	ranked := make([]models.PointOfSale, len(points))
	copy(ranked, points)
	sort.SliceStable(ranked, func(i, j int) bool {
		return saleOrZero(ranked[i].Sale) > saleOrZero(ranked[j].Sale)
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}

// median sorts a copy; vals must be non-empty.
func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return sum(vals) / float64(len(vals))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func saleOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}
