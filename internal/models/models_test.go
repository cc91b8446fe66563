// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package models

import (
	"math"
	"testing"
	"time"
)

func TestPointInputNormalize(t *testing.T) {
	in := PointInput{
		Latitude:    Float64(19.43261234),
		Longitude:   Float64(-99.13321987),
		Description: "  Tienda Centro  ",
		Sale:        1234.5678,
		Zone:        " Naucalpan ",
	}
	in.Normalize()

	if *in.Latitude != 19.432612 {
		t.Errorf("Latitude = %v, want 19.432612", *in.Latitude)
	}
	if *in.Longitude != -99.13322 {
		t.Errorf("Longitude = %v, want -99.13322", *in.Longitude)
	}
	if in.Sale != 1234.57 {
		t.Errorf("Sale = %v, want 1234.57", in.Sale)
	}
	if in.Description != "Tienda Centro" {
		t.Errorf("Description = %q", in.Description)
	}
	if in.Zone != "Naucalpan" {
		t.Errorf("Zone = %q", in.Zone)
	}
}

func TestPointOfSaleHelpers(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	tests := []struct {
		name      string
		point     PointOfSale
		wantCoord bool
		wantSale  bool
		touched   time.Time
	}{
		{
			name:      "complete record",
			point:     PointOfSale{Latitude: Float64(1), Longitude: Float64(2), Sale: 10, CreatedAt: created, UpdatedAt: &updated},
			wantCoord: true,
			wantSale:  true,
			touched:   updated,
		},
		{
			name:      "missing longitude",
			point:     PointOfSale{Latitude: Float64(1), Sale: 0, CreatedAt: created},
			wantCoord: false,
			wantSale:  true,
			touched:   created,
		},
		{
			name:      "nan coordinate and negative sale",
			point:     PointOfSale{Latitude: Float64(math.NaN()), Longitude: Float64(2), Sale: -1, CreatedAt: created},
			wantCoord: false,
			wantSale:  false,
			touched:   created,
		},
		{
			name:      "non-finite sale",
			point:     PointOfSale{Sale: math.Inf(1), CreatedAt: created},
			wantCoord: false,
			wantSale:  false,
			touched:   created,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.point.HasCoordinates(); got != tt.wantCoord {
				t.Errorf("HasCoordinates() = %v, want %v", got, tt.wantCoord)
			}
			if got := tt.point.HasValidSale(); got != tt.wantSale {
				t.Errorf("HasValidSale() = %v, want %v", got, tt.wantSale)
			}
			if got := tt.point.LastTouched(); !got.Equal(tt.touched) {
				t.Errorf("LastTouched() = %v, want %v", got, tt.touched)
			}
		})
	}
}

func TestAppUserIdentityDefaults(t *testing.T) {
	u := AppUser{ID: 7, Username: "alice"}
	id := u.Identity()

	if id.DisplayName != "alice" {
		t.Errorf("DisplayName = %q, want username fallback", id.DisplayName)
	}
	if id.Zone != DefaultUserZone {
		t.Errorf("Zone = %q, want %q", id.Zone, DefaultUserZone)
	}
	if id.Token != "" {
		t.Error("Identity must not carry a token")
	}
}
