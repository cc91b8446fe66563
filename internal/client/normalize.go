// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package client

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/posmap/internal/models"
)

// Accepted spellings, in lookup order.
var (
	idKeys          = []string{"id", "Id", "ID", "pointId", "point_id"}
	latitudeKeys    = []string{"latitude", "lat", "Latitude", "Lat"}
	longitudeKeys   = []string{"longitude", "lng", "lon", "Longitude", "Lng"}
	descriptionKeys = []string{"description", "Description", "desc"}
	saleKeys        = []string{"sale", "Sale", "amount"}
	zoneKeys        = []string{"zone", "Zone", "zoneName", "zone_name", "ZoneName"}
	createdKeys     = []string{"created_at", "createdAt", "CreatedAt", "created"}
	updatedKeys     = []string{"updated_at", "updatedAt", "UpdatedAt", "updated"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ErrMissingID is returned for a point record without a usable identifier.
var ErrMissingID = errors.New("point record has no id")

// NormalizePoints decodes a JSON array of point records.
func NormalizePoints(data []byte) ([]models.PointOfSale, error) {
	var raws []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode points: %w", err)
	}
	points := make([]models.PointOfSale, 0, len(raws))
	for i, raw := range raws {
		p, err := NormalizePoint(raw)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// NormalizePoint maps one decoded record onto the canonical shape.
//
// Coordinates that are absent, null or non-numeric become nil. A sale that is
// absent or non-numeric becomes NaN so aggregates can tell it apart from a
// real zero. The zone is resolved by ResolveZone.
func NormalizePoint(raw map[string]json.RawMessage) (models.PointOfSale, error) {
	var p models.PointOfSale

	idRaw, ok := lookup(raw, idKeys)
	if !ok {
		return p, ErrMissingID
	}
	id, ok := parseNumber(idRaw)
	if !ok || id != math.Trunc(id) {
		return p, fmt.Errorf("%w: %s", ErrMissingID, string(idRaw))
	}
	p.ID = int64(id)

	if v, ok := lookup(raw, latitudeKeys); ok {
		p.Latitude = parseCoordinate(v)
	}
	if v, ok := lookup(raw, longitudeKeys); ok {
		p.Longitude = parseCoordinate(v)
	}
	if v, ok := lookup(raw, descriptionKeys); ok {
		p.Description = strings.TrimSpace(parseString(v))
	}

	p.Sale = math.NaN()
	if v, ok := lookup(raw, saleKeys); ok {
		if sale, ok := parseNumber(v); ok {
			p.Sale = sale
		}
	}

	p.Zone = ResolveZone(raw)

	if v, ok := lookup(raw, createdKeys); ok {
		if t, ok := parseTime(v); ok {
			p.CreatedAt = t
		}
	}
	if v, ok := lookup(raw, updatedKeys); ok {
		if t, ok := parseTime(v); ok {
			p.UpdatedAt = &t
		}
	}
	return p, nil
}

// ResolveZone returns the zone label of a raw record. The zone may be a
// plain string or an object carrying a name. Blank or missing zones resolve
// to models.UnassignedZone.
func ResolveZone(raw map[string]json.RawMessage) string {
	v, ok := lookup(raw, zoneKeys)
	if !ok {
		return models.UnassignedZone
	}
	name := zoneName(v)
	if name == "" {
		return models.UnassignedZone
	}
	return name
}

func zoneName(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) > 0 && v[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err != nil {
			return ""
		}
		if n, ok := lookup(obj, []string{"name", "Name", "zone", "label"}); ok {
			return strings.TrimSpace(parseString(n))
		}
		return ""
	}
	return strings.TrimSpace(parseString(v))
}

// normalizeUser maps a login response user onto models.User, accepting both
// display_name and displayName.
func normalizeUser(raw map[string]json.RawMessage) models.User {
	var u models.User
	if v, ok := lookup(raw, idKeys); ok {
		if id, ok := parseNumber(v); ok {
			u.ID = int64(id)
		}
	}
	if v, ok := lookup(raw, []string{"username", "Username", "userName"}); ok {
		u.Username = parseString(v)
	}
	if v, ok := lookup(raw, []string{"display_name", "displayName", "DisplayName"}); ok {
		u.DisplayName = parseString(v)
	}
	if v, ok := lookup(raw, zoneKeys); ok {
		u.Zone = zoneName(v)
	}
	if v, ok := lookup(raw, []string{"token", "Token"}); ok {
		u.Token = parseString(v)
	}
	return u
}

// lookup returns the first present, non-null value among keys.
func lookup(raw map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		if t := bytes.TrimSpace(v); len(t) == 0 || bytes.Equal(t, []byte("null")) {
			continue
		}
		return v, true
	}
	return nil, false
}

func parseString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	// Numbers and booleans keep their literal text.
	t := strings.TrimSpace(string(v))
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return ""
	}
	return t
}

// parseNumber accepts JSON numbers and numeric strings. Non-finite results
// are rejected.
func parseNumber(v json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseCoordinate(v json.RawMessage) *float64 {
	f, ok := parseNumber(v)
	if !ok {
		return nil
	}
	return &f
}

// parseTime accepts RFC 3339 and a few SQL-style layouts, or a Unix epoch in
// milliseconds.
func parseTime(v json.RawMessage) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		ms, ok := parseNumber(v)
		if !ok {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)), true
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}
