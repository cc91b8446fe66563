// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/posmap/internal/analytics"
	"github.com/tomtom215/posmap/internal/cache"
	"github.com/tomtom215/posmap/internal/models"
)

const (
	defaultSeriesDays = 7
	maxSeriesDays     = 366
	defaultTopLimit   = 5
	maxTopLimit       = 500
)

// analyticsView computes one aggregate over every stored point and caches
// it under key until the TTL expires or a mutation clears the cache.
func analyticsView[T any](h *Handler, w http.ResponseWriter, r *http.Request, key string, compute func([]models.PointOfSale) T) {
	rw := NewResponseWriter(w, r)
	result, err := cache.GetOrCompute(h.cache, key, func() (T, error) {
		var zero T
		points, err := h.db.AllPoints(r.Context())
		if err != nil {
			return zero, err
		}
		return compute(points), nil
	})
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(result)
}

// AnalyticsSummary handles GET /api/v1/analytics/summary.
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	analyticsView(h, w, r, "analytics:summary", analytics.SalesSummary)
}

// AnalyticsCoverage handles GET /api/v1/analytics/coverage.
func (h *Handler) AnalyticsCoverage(w http.ResponseWriter, r *http.Request) {
	analyticsView(h, w, r, "analytics:coverage", analytics.GeoCoverage)
}

// AnalyticsQuality handles GET /api/v1/analytics/quality.
func (h *Handler) AnalyticsQuality(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	analyticsView(h, w, r, "analytics:quality", func(points []models.PointOfSale) analytics.Quality {
		return analytics.DataQuality(points, now)
	})
}

// AnalyticsDashboard handles GET /api/v1/analytics/dashboard.
func (h *Handler) AnalyticsDashboard(w http.ResponseWriter, r *http.Request) {
	ref := h.reference()
	key := cache.GenerateKey("analytics:dashboard", map[string]string{"day": ref.Format(time.DateOnly)})
	analyticsView(h, w, r, key, func(points []models.PointOfSale) analytics.DashboardKPIs {
		return analytics.Dashboard(points, ref)
	})
}

// AnalyticsSeries handles GET /api/v1/analytics/series?days=N.
func (h *Handler) AnalyticsSeries(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", defaultSeriesDays)
	if days < 1 {
		days = 1
	}
	if days > maxSeriesDays {
		days = maxSeriesDays
	}
	ref := h.reference()
	key := cache.GenerateKey("analytics:series", map[string]interface{}{
		"days": days,
		"day":  ref.Format(time.DateOnly),
	})
	analyticsView(h, w, r, key, func(points []models.PointOfSale) []analytics.DaySample {
		return analytics.DailySeries(points, days, ref)
	})
}

// AnalyticsTop handles GET /api/v1/analytics/top?limit=N.
func (h *Handler) AnalyticsTop(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", defaultTopLimit)
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	key := cache.GenerateKey("analytics:top", map[string]int{"limit": limit})
	analyticsView(h, w, r, key, func(points []models.PointOfSale) []models.PointOfSale {
		return analytics.TopPoints(points, limit)
	})
}

// AnalyticsTrend handles GET /api/v1/analytics/trend?tz=Zone. The zone
// defaults to server.timezone.
func (h *Handler) AnalyticsTrend(w http.ResponseWriter, r *http.Request) {
	loc := h.config.Server.Location()
	if tz := r.URL.Query().Get("tz"); tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			NewResponseWriter(w, r).BadRequest("Unknown time zone: " + sanitizeLogValue(tz))
			return
		}
	}
	key := cache.GenerateKey("analytics:trend", map[string]string{"tz": loc.String()})
	analyticsView(h, w, r, key, func(points []models.PointOfSale) []analytics.DaySample {
		return analytics.SalesTrend(points, loc)
	})
}
