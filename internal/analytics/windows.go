// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package analytics

import (
	"sort"
	"time"

	"github.com/tomtom215/posmap/internal/models"
)

// DayKeyLayout formats day-bucket keys.
const DayKeyLayout = "2006-01-02"

// Window is the sales sum and record count of a time window.
type Window struct {
	Sales float64 `json:"sales"`
	Count int     `json:"count"`
}

// Deltas are percentage changes between the current and previous week.
type Deltas struct {
	WeekSalesPct float64 `json:"week_sales_pct"`
	WeekCountPct float64 `json:"week_count_pct"`
	AvgTicketPct float64 `json:"avg_ticket_pct"`
}

// WindowDeltas compares this week with the previous one.
type WindowDeltas struct {
	Week     Window `json:"week"`
	PrevWeek Window `json:"prev_week"`
	Deltas   Deltas `json:"deltas"`
}

// DaySample is one day of a daily series.
type DaySample struct {
	Date  string  `json:"date"`
	Sales float64 `json:"sales"`
	Count int     `json:"count"`
}

// civilDay maps t to midnight UTC of its calendar date in loc, so that
// subtracting two civil days always yields a whole number of 24h periods.
func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysAgo returns how many calendar days t lies before today.
func daysAgo(today, t time.Time, loc *time.Location) int {
	return int(today.Sub(civilDay(t, loc)) / (24 * time.Hour))
}

// TimeWindowDeltas partitions points by created_at into this week (the 7
// calendar days ending today, inclusive) and the 7 days before it.
// Day boundaries are local dates in ref's location.
func TimeWindowDeltas(points []models.PointOfSale, ref time.Time) WindowDeltas {
	loc := ref.Location()
	today := civilDay(ref, loc)

	var out WindowDeltas
	for i := range points {
		p := &points[i]
		if p.CreatedAt.IsZero() {
			continue
		}
		switch ago := daysAgo(today, p.CreatedAt, loc); {
		case ago >= 0 && ago <= 6:
			out.Week.Sales += saleOrZero(p.Sale)
			out.Week.Count++
		case ago >= 7 && ago <= 13:
			out.PrevWeek.Sales += saleOrZero(p.Sale)
			out.PrevWeek.Count++
		}
	}

	out.Deltas.WeekSalesPct = Pct(out.Week.Sales, out.PrevWeek.Sales)
	out.Deltas.WeekCountPct = Pct(float64(out.Week.Count), float64(out.PrevWeek.Count))
	return out
}

// DailySeries returns exactly n samples for the trailing n calendar days
// ending at ref's date, oldest first, zero-filled. Points are bucketed by
// created_at; points outside the window are ignored. n <= 0 yields an empty
// series.
func DailySeries(points []models.PointOfSale, n int, ref time.Time) []DaySample {
	if n <= 0 {
		return []DaySample{}
	}
	loc := ref.Location()
	today := civilDay(ref, loc)
	start := today.AddDate(0, 0, -(n - 1))

	series := make([]DaySample, n)
	for i := range series {
		series[i].Date = start.AddDate(0, 0, i).Format(DayKeyLayout)
	}

	for i := range points {
		p := &points[i]
		if p.CreatedAt.IsZero() {
			continue
		}
		ago := daysAgo(today, p.CreatedAt, loc)
		if ago < 0 || ago >= n {
			continue
		}
		s := &series[n-1-ago]
		s.Sales += saleOrZero(p.Sale)
		s.Count++
	}
	return series
}

// SalesTrend buckets the whole history by local day in loc, using updated_at
// when present and created_at otherwise. Only days with data appear; the
// result is ordered by date. Records with a non-finite sale are skipped.
func SalesTrend(points []models.PointOfSale, loc *time.Location) []DaySample {
	if loc == nil {
		loc = time.UTC
	}
	buckets := make(map[string]*DaySample)
	for i := range points {
		p := &points[i]
		ts := p.LastTouched()
		if ts.IsZero() || !isFinite(p.Sale) {
			continue
		}
		key := ts.In(loc).Format(DayKeyLayout)
		b, ok := buckets[key]
		if !ok {
			b = &DaySample{Date: key}
			buckets[key] = b
		}
		b.Sales += p.Sale
		b.Count++
	}

	out := make([]DaySample, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
