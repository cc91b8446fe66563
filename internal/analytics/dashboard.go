// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package analytics

import (
	"time"

	"github.com/tomtom215/posmap/internal/models"
)

// TopPoint identifies the point with the highest sale.
type TopPoint struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Sale        float64 `json:"sale"`
	Zone        string  `json:"zone"`
}

// ZoneTotal is the best-selling zone of a dashboard.
type ZoneTotal struct {
	Zone  string  `json:"zone"`
	Total float64 `json:"total"`
}

// DashboardKPIs is the combined KPI block of the dashboard view.
type DashboardKPIs struct {
	TotalPoints     int         `json:"total_points"`
	TotalSales      float64     `json:"total_sales"`
	AvgSalePerPoint float64     `json:"avg_sale_per_point"`
	ActiveZones     int         `json:"active_zones"`
	TopPoint        *TopPoint   `json:"top_point,omitempty"`
	TopZone         *ZoneTotal  `json:"top_zone,omitempty"`
	Week            Window      `json:"week"`
	PrevWeek        Window      `json:"prev_week"`
	Deltas          Deltas      `json:"deltas"`
	Today           Window      `json:"today"`
	TodayUpdated    int         `json:"today_updated"`
	Last7           []DaySample `json:"last7"`
}

// Dashboard computes the dashboard KPIs relative to ref.
// Invalid sales count as 0 and blank zones map to models.UnassignedZone.
func Dashboard(points []models.PointOfSale, ref time.Time) DashboardKPIs {
	loc := ref.Location()
	today := civilDay(ref, loc)

	kpis := DashboardKPIs{TotalPoints: len(points)}

	var top *models.PointOfSale
	for i := range points {
		p := &points[i]
		sale := saleOrZero(p.Sale)
		kpis.TotalSales += sale

		if top == nil || sale > saleOrZero(top.Sale) {
			top = p
		}

		if !p.CreatedAt.IsZero() && daysAgo(today, p.CreatedAt, loc) == 0 {
			kpis.Today.Sales += sale
			kpis.Today.Count++
		}
		if p.UpdatedAt != nil && !p.UpdatedAt.IsZero() && daysAgo(today, *p.UpdatedAt, loc) == 0 {
			kpis.TodayUpdated++
		}
	}

	if kpis.TotalPoints > 0 {
		kpis.AvgSalePerPoint = kpis.TotalSales / float64(kpis.TotalPoints)
	}
	if top != nil {
		kpis.TopPoint = &TopPoint{
			ID:          top.ID,
			Description: top.Description,
			Sale:        saleOrZero(top.Sale),
			Zone:        ZoneOf(top),
		}
	}

	zones := SalesByZone(points)
	kpis.ActiveZones = len(zones)
	if z, ok := TopZone(zones); ok {
		kpis.TopZone = &ZoneTotal{Zone: z.Zone, Total: z.TotalSale}
	}

	wd := TimeWindowDeltas(points, ref)
	kpis.Week = wd.Week
	kpis.PrevWeek = wd.PrevWeek
	kpis.Deltas = wd.Deltas

	var prevTicket float64
	if wd.PrevWeek.Count > 0 {
		prevTicket = wd.PrevWeek.Sales / float64(wd.PrevWeek.Count)
	}
	kpis.Deltas.AvgTicketPct = Pct(kpis.AvgSalePerPoint, prevTicket)

	kpis.Last7 = DailySeries(points, 7, ref)
	return kpis
}
