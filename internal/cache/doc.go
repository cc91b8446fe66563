// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package cache provides the TTL cache in front of the aggregate endpoints
and a spatial hash grid for proximity queries.

Sales by zone, the dashboard and the other analytics views are recomputed
from every stored point, so the API caches them for a short TTL
(cache.ttl, default 30s) and clears the cache whenever a point is created,
updated or deleted.

	c := cache.New("aggregates", 30*time.Second)
	defer c.Close()

	zones, err := cache.GetOrCompute(c, "sales_by_zone", func() ([]models.ZoneSales, error) {
	    return db.SalesByZone(ctx)
	})

Parameterized views hash their parameters into the key with GenerateKey.
A result computed while Clear ran is returned to its caller but not stored.

Hits, misses, evictions and size are exported as Prometheus metrics
labelled with the cache name.

SpatialHashGrid indexes coordinates in lat/lng cells for nearest-neighbour
lookups. The analytics package uses it for the average distance between
neighbouring points of sale.

	grid := cache.NewSpatialHashGrid(2)
	grid.Insert("1", 19.4326, -99.1332)
	grid.Insert("2", 19.4300, -99.1300)
	_, meters, ok := grid.Nearest(19.4326, -99.1332, "1")
*/
package cache
