// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package api

import (
	"net/http"

	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/models"
	"github.com/tomtom215/posmap/internal/report"
)

// ReportResult is the JSON report body.
type ReportResult struct {
	Points []models.PointOfSale `json:"points"`
	Total  float64              `json:"total"`
	Count  int                  `json:"count"`
	Zones  []string             `json:"zones"`
}

func reportQuery(r *http.Request) report.Query {
	q := r.URL.Query()
	return report.Query{Text: q.Get("q"), Zone: q.Get("zone")}
}

// Report handles GET /api/v1/report?q=&zone=. Zones lists every zone in
// the store so clients can offer a filter.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	points, err := h.db.AllPoints(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	matched := report.Filter(points, reportQuery(r))
	rw.Success(ReportResult{
		Points: matched,
		Total:  models.Round(report.Total(matched), 2),
		Count:  len(matched),
		Zones:  report.Zones(points),
	})
}

// ExportReportCSV handles GET /api/v1/report/export.csv.
func (h *Handler) ExportReportCSV(w http.ResponseWriter, r *http.Request) {
	points, err := h.db.AllPoints(r.Context())
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}
	matched := report.Filter(points, reportQuery(r))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, matched); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write report CSV")
		return
	}
	logging.Ctx(r.Context()).Debug().Int("rows", len(matched)).Msg("Report exported")
}
