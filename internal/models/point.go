// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package models

import (
	"math"
	"strings"
	"time"
)

// UnassignedZone is the label used for points whose zone is blank or missing.
const UnassignedZone = "Unassigned"

// PointOfSale is the canonical point-of-sale record.
type PointOfSale struct {
	ID          int64      `json:"id"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Description string     `json:"description"`
	Sale        float64    `json:"sale"`
	Zone        string     `json:"zone"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// HasCoordinates reports whether both coordinates are present and finite.
func (p *PointOfSale) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil &&
		isFinite(*p.Latitude) && isFinite(*p.Longitude)
}

// HasValidSale reports whether Sale is a finite, non-negative amount.
func (p *PointOfSale) HasValidSale() bool {
	return isFinite(p.Sale) && p.Sale >= 0
}

// LastTouched returns UpdatedAt when set, otherwise CreatedAt.
func (p *PointOfSale) LastTouched() time.Time {
	if p.UpdatedAt != nil && !p.UpdatedAt.IsZero() {
		return *p.UpdatedAt
	}
	return p.CreatedAt
}

// PointInput is the create/update payload for a point of sale.
type PointInput struct {
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Description string   `json:"description" validate:"required,max=200"`
	Sale        float64  `json:"sale" validate:"gte=0"`
	Zone        string   `json:"zone" validate:"max=100"`
}

// Normalize rounds coordinates to 6 decimals and the sale to 2, and trims the
// free-text fields. It is applied before validation and persistence.
func (in *PointInput) Normalize() {
	if in.Latitude != nil {
		v := Round(*in.Latitude, 6)
		in.Latitude = &v
	}
	if in.Longitude != nil {
		v := Round(*in.Longitude, 6)
		in.Longitude = &v
	}
	in.Sale = Round(in.Sale, 2)
	in.Description = strings.TrimSpace(in.Description)
	in.Zone = strings.TrimSpace(in.Zone)
}

// InputFromPoint builds a write payload from an existing record.
func InputFromPoint(p *PointOfSale) PointInput {
	return PointInput{
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Description: p.Description,
		Sale:        p.Sale,
		Zone:        p.Zone,
	}
}

// ZoneSales is a per-zone sale total as reported by the Data Gateway.
type ZoneSales struct {
	Zone      string  `json:"zone"`
	TotalSale float64 `json:"total_sale"`
	Count     int     `json:"count"`
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, decimals int) float64 {
	if !isFinite(v) {
		return v
	}
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
