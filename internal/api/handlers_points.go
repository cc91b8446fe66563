// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/tomtom215/posmap/internal/cache"
	"github.com/tomtom215/posmap/internal/database"
	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/metrics"
	"github.com/tomtom215/posmap/internal/models"
	"github.com/tomtom215/posmap/internal/validation"
)

// pageBounds clamps the page and size query parameters. A page below 1
// becomes 1 and a size outside (0, max] becomes the default. Pages past
// math.MaxInt/size are pinned there so the offset cannot overflow; such a
// page is simply empty.
func (h *Handler) pageBounds(r *http.Request) (page, size int) {
	def, maxSize := h.config.API.DefaultPageSize, h.config.API.MaxPageSize
	if def <= 0 {
		def = 50
	}
	if maxSize <= 0 {
		maxSize = 500
	}

	page = intParam(r, "page", 1)
	if page <= 0 {
		page = 1
	}
	size = intParam(r, "size", def)
	if size <= 0 || size > maxSize {
		size = def
	}
	if lastPage := math.MaxInt / size; page > lastPage {
		page = lastPage
	}
	return page, size
}

// ListPoints handles GET /api/v1/points.
func (h *Handler) ListPoints(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	page, size := h.pageBounds(r)
	offset := (page - 1) * size

	points, total, err := h.db.ListPoints(r.Context(), offset, size)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	metrics.PointsTotal.Set(float64(total))

	rw.SuccessWithPagination(points, &PaginationMeta{
		Total:   total,
		Count:   len(points),
		Offset:  offset,
		Limit:   size,
		HasMore: int64(offset+len(points)) < total,
	})
}

// GetPoint handles GET /api/v1/points/{id}.
func (h *Handler) GetPoint(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := pathID(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	p, err := h.db.GetPoint(r.Context(), id)
	if errors.Is(err, database.ErrPointNotFound) {
		rw.NotFound("Point of sale not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(p)
}

// decodePointInput reads, normalizes and validates a write payload. It
// writes the error response and returns false on failure.
func decodePointInput(rw *ResponseWriter, r *http.Request) (models.PointInput, bool) {
	var in models.PointInput
	if err := decodeJSON(r, &in); err != nil {
		rw.BadRequest(err.Error())
		return in, false
	}
	in.Normalize()
	if verr := validation.ValidateStruct(&in); verr != nil {
		rw.ValidationError(verr)
		return in, false
	}
	return in, true
}

// CreatePoint handles POST /api/v1/points.
func (h *Handler) CreatePoint(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	in, ok := decodePointInput(rw, r)
	if !ok {
		return
	}

	p, err := h.db.CreatePoint(r.Context(), in)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	h.afterMutation("create")
	if h.wsHub != nil {
		h.wsHub.BroadcastPointCreated(p)
	}
	logging.Ctx(r.Context()).Info().Int64("point_id", p.ID).Str("zone", p.Zone).Msg("Point of sale created")
	rw.Created(p)
}

// UpdatePoint handles PUT /api/v1/points/{id}.
func (h *Handler) UpdatePoint(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := pathID(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	in, ok := decodePointInput(rw, r)
	if !ok {
		return
	}

	p, err := h.db.UpdatePoint(r.Context(), id, in)
	if errors.Is(err, database.ErrPointNotFound) {
		rw.NotFound("Point of sale not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	h.afterMutation("update")
	if h.wsHub != nil {
		h.wsHub.BroadcastPointUpdated(p)
	}
	logging.Ctx(r.Context()).Info().Int64("point_id", id).Msg("Point of sale updated")
	rw.NoContent()
}

// DeletePoint handles DELETE /api/v1/points/{id}.
func (h *Handler) DeletePoint(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := pathID(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	err = h.db.DeletePoint(r.Context(), id)
	if errors.Is(err, database.ErrPointNotFound) {
		rw.NotFound("Point of sale not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	h.afterMutation("delete")
	if h.wsHub != nil {
		h.wsHub.BroadcastPointDeleted(id)
	}
	logging.Ctx(r.Context()).Info().Int64("point_id", id).Msg("Point of sale deleted")
	rw.NoContent()
}

func (h *Handler) afterMutation(op string) {
	h.ClearCache()
	metrics.RecordPointMutation(op)
}

// SalesByZone handles GET /api/v1/points/sales-by-zone.
func (h *Handler) SalesByZone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	zones, err := cache.GetOrCompute(h.cache, "sales-by-zone", func() ([]models.ZoneSales, error) {
		return h.db.SalesByZone(r.Context())
	})
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(zones)
}
