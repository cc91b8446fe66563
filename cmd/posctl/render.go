// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/tomtom215/posmap/internal/analytics"
	"github.com/tomtom215/posmap/internal/models"
)

var (
	colorBorder = lipgloss.Color("#45475a")
	colorAccent = lipgloss.Color("#74c7ec")
	colorMuted  = lipgloss.Color("#a6adc8")
	colorUp     = lipgloss.Color("#a6e3a1")
	colorDown   = lipgloss.Color("#f38ba8")

	titleStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	upStyle     = lipgloss.NewStyle().Foreground(colorUp)
	downStyle   = lipgloss.NewStyle().Foreground(colorDown)
	headerStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(24)
)

func formatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func formatCoord(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

func formatDelta(pct float64) string {
	s := fmt.Sprintf("%+.1f%%", pct)
	switch {
	case pct > 0:
		return upStyle.Render(s)
	case pct < 0:
		return downStyle.Render(s)
	default:
		return mutedStyle.Render(s)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderPoints(points []models.PointOfSale) string {
	t := newTable("ID", "Description", "Zone", "Sale", "Latitude", "Longitude")
	for i := range points {
		p := &points[i]
		t.Row(
			strconv.FormatInt(p.ID, 10),
			p.Description,
			analytics.ZoneOf(p),
			formatMoney(p.Sale),
			formatCoord(p.Latitude),
			formatCoord(p.Longitude),
		)
	}
	return t.String()
}

func renderPoint(p *models.PointOfSale) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("#%d %s", p.ID, p.Description)))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "zone      %s\n", analytics.ZoneOf(p))
	fmt.Fprintf(&b, "sale      %s\n", formatMoney(p.Sale))
	fmt.Fprintf(&b, "location  %s, %s\n", formatCoord(p.Latitude), formatCoord(p.Longitude))
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "created   %s\n", humanize.Time(p.CreatedAt))
	}
	if p.UpdatedAt != nil {
		fmt.Fprintf(&b, "updated   %s\n", humanize.Time(*p.UpdatedAt))
	}
	return b.String()
}

func renderZones(zones []models.ZoneSales) string {
	t := newTable("Zone", "Points", "Total sale")
	for _, z := range zones {
		t.Row(z.Zone, strconv.Itoa(z.Count), formatMoney(z.TotalSale))
	}
	return t.String()
}

func avgTicket(w analytics.Window) float64 {
	if w.Count == 0 {
		return 0
	}
	return w.Sales / float64(w.Count)
}

func card(label, value, sub string) string {
	body := mutedStyle.Render(label) + "\n" + titleStyle.Render(value)
	if sub != "" {
		body += "\n" + sub
	}
	return cardStyle.Render(body)
}

// renderDashboard lays out the KPI cards in two rows followed by the
// last seven days.
func renderDashboard(d analytics.DashboardKPIs) string {
	top := "-"
	if d.TopZone != nil {
		top = d.TopZone.Zone
	}
	best := "-"
	if d.TopPoint != nil {
		best = d.TopPoint.Description
	}

	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Points", humanize.Comma(int64(d.TotalPoints)), mutedStyle.Render(fmt.Sprintf("%d zones", d.ActiveZones))),
		card("Total sales", formatMoney(d.TotalSales), ""),
		card("Avg per point", formatMoney(d.AvgSalePerPoint), ""),
		card("Top zone", top, mutedStyle.Render(best)),
	)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Week sales", formatMoney(d.Week.Sales), formatDelta(d.Deltas.WeekSalesPct)+mutedStyle.Render(" vs prev")),
		card("Week points", strconv.Itoa(d.Week.Count), formatDelta(d.Deltas.WeekCountPct)+mutedStyle.Render(" vs prev")),
		card("Avg ticket", formatMoney(avgTicket(d.Week)), formatDelta(d.Deltas.AvgTicketPct)+mutedStyle.Render(" vs prev")),
		card("Today", formatMoney(d.Today.Sales), mutedStyle.Render(fmt.Sprintf("%d new, %d updated", d.Today.Count, d.TodayUpdated))),
	)

	days := newTable("Day", "Points", "Sales")
	for _, s := range d.Last7 {
		days.Row(s.Date, strconv.Itoa(s.Count), formatMoney(s.Sales))
	}
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2, days.String())
}
