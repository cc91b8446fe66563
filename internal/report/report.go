// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

// Package report filters points of sale and exports them as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/posmap/internal/analytics"
	"github.com/tomtom215/posmap/internal/models"
)

// Filename is the suggested attachment name for exports.
const Filename = "points_of_sale_report.csv"

// Header is the first CSV row.
var Header = []string{"ID", "Description", "Zone", "Sale", "Latitude", "Longitude"}

// Query selects points for a report. Zero fields match everything.
type Query struct {
	// Text matches the description case-insensitively, or any part of the
	// decimal id.
	Text string
	// Zone matches the normalized zone exactly.
	Zone string
}

// Filter returns the points matching q, in input order.
func Filter(points []models.PointOfSale, q Query) []models.PointOfSale {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	zone := strings.TrimSpace(q.Zone)

	out := make([]models.PointOfSale, 0, len(points))
	for i := range points {
		p := &points[i]
		if text != "" &&
			!strings.Contains(strings.ToLower(p.Description), text) &&
			!strings.Contains(strconv.FormatInt(p.ID, 10), text) {
			continue
		}
		if zone != "" && analytics.ZoneOf(p) != zone {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Total sums the valid sales of points.
func Total(points []models.PointOfSale) float64 {
	var total float64
	for i := range points {
		if points[i].HasValidSale() {
			total += points[i].Sale
		}
	}
	return total
}

// Zones returns the distinct normalized zones of points, sorted.
func Zones(points []models.PointOfSale) []string {
	seen := make(map[string]struct{})
	for i := range points {
		seen[analytics.ZoneOf(&points[i])] = struct{}{}
	}
	zones := make([]string, 0, len(seen))
	for z := range seen {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}

// WriteCSV writes Header followed by one row per point. Missing
// coordinates and invalid sales are written as empty cells.
func WriteCSV(w io.Writer, points []models.PointOfSale) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i := range points {
		p := &points[i]
		row := []string{
			strconv.FormatInt(p.ID, 10),
			p.Description,
			analytics.ZoneOf(p),
			"",
			formatCoord(p.Latitude),
			formatCoord(p.Longitude),
		}
		if p.HasValidSale() {
			row[3] = strconv.FormatFloat(p.Sale, 'f', 2, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", p.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
