// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/models"
)

// seedZones are demo zones in the Mexico City metropolitan area.
var seedZones = []struct {
	name     string
	lat, lng float64
}{
	{"Naucalpan", 19.4785, -99.2396},
	{"Polanco", 19.4326, -99.1942},
	{"Coyoacán", 19.3467, -99.1617},
	{"Satélite", 19.5097, -99.2353},
	{"Centro", 19.4326, -99.1332},
}

const (
	seedPointsPerZone = 8
	seedDaysOfHistory = 21
)

// SeedMockData inserts demo points when the table is empty. The generator
// is seeded with a constant so every run produces the same data set.
func (db *DB) SeedMockData(ctx context.Context) error {
	points, _, err := db.GetRecordCounts(ctx)
	if err != nil {
		return err
	}
	if points > 0 {
		logging.Debug().Int64("points", points).Msg("Skipping mock data seed, table not empty")
		return nil
	}

	rng := rand.New(rand.NewPCG(2026, 1))
	now := db.now()
	inserted := 0

	for _, zone := range seedZones {
		for i := 0; i < seedPointsPerZone; i++ {
			in := models.PointInput{
				Latitude:    models.Float64(zone.lat + (rng.Float64()-0.5)*0.02),
				Longitude:   models.Float64(zone.lng + (rng.Float64()-0.5)*0.02),
				Description: fmt.Sprintf("Tienda %s %d", zone.name, i+1),
				Sale:        500 + rng.Float64()*9500,
				Zone:        zone.name,
			}
			in.Normalize()

			created := now.Add(-time.Duration(rng.IntN(seedDaysOfHistory*24)) * time.Hour)
			_, err := db.conn.ExecContext(ctx,
				`INSERT INTO points_of_sale (latitude, longitude, description, sale, zone, created_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				*in.Latitude, *in.Longitude, in.Description, in.Sale, in.Zone, created)
			if err != nil {
				return fmt.Errorf("seed point %q: %w", in.Description, err)
			}
			inserted++
		}
	}

	logging.Info().Int("points", inserted).Msg("Seeded database with mock points")
	return nil
}
