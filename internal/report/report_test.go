// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/tomtom215/posmap/internal/models"
)

func fixture() []models.PointOfSale {
	return []models.PointOfSale{
		{ID: 1, Description: "Kiosko Centro", Sale: 100, Zone: "Centro", Latitude: models.Float64(19.4326), Longitude: models.Float64(-99.1332)},
		{ID: 12, Description: "Tienda Norte", Sale: 250.5, Zone: "Norte"},
		{ID: 21, Description: "Puesto, \"El Güero\"", Sale: math.NaN(), Zone: ""},
		{ID: 3, Description: "Farmacia centro", Sale: 40, Zone: "Centro"},
	}
}

func ids(points []models.PointOfSale) []int64 {
	out := make([]int64, len(points))
	for i := range points {
		out[i] = points[i].ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []int64
	}{
		{"empty query matches all", Query{}, []int64{1, 12, 21, 3}},
		{"description case-insensitive", Query{Text: "CENTRO"}, []int64{1, 3}},
		{"id substring", Query{Text: "1"}, []int64{1, 12, 21}},
		{"zone", Query{Zone: "Centro"}, []int64{1, 3}},
		{"unassigned zone", Query{Zone: models.UnassignedZone}, []int64{21}},
		{"text and zone", Query{Text: "farm", Zone: "Centro"}, []int64{3}},
		{"no match", Query{Text: "zzz"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(fixture(), tt.q))
			if len(got) != len(tt.want) {
				t.Fatalf("Filter() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Filter() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestTotal(t *testing.T) {
	if got := Total(fixture()); got != 390.5 {
		t.Errorf("Total() = %v, want 390.5", got)
	}
	if got := Total(nil); got != 0 {
		t.Errorf("Total(nil) = %v, want 0", got)
	}
}

func TestZones(t *testing.T) {
	got := strings.Join(Zones(fixture()), ",")
	if got != "Centro,Norte,"+models.UnassignedZone {
		t.Errorf("Zones() = %s", got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, fixture()[:3]); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "ID,Description,Zone,Sale,Latitude,Longitude\n" +
		"1,Kiosko Centro,Centro,100.00,19.4326,-99.1332\n" +
		"12,Tienda Norte,Norte,250.50,,\n" +
		"21,\"Puesto, \"\"El Güero\"\"\",Unassigned,,,\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if buf.String() != "ID,Description,Zone,Sale,Latitude,Longitude\n" {
		t.Errorf("WriteCSV(nil) = %q", buf.String())
	}
}
