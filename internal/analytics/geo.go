// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package analytics

import (
	"strconv"

	"github.com/tomtom215/posmap/internal/cache"
	"github.com/tomtom215/posmap/internal/models"
)

// neighborCellKm sizes the grid cells for nearest-neighbour search. Points
// of sale sit a few hundred meters apart within a city.
const neighborCellKm = 2

// ZoneCentroid is the mean position of a zone's geocoded members.
//
// A zone without geocoded members reports Lat=0, Lng=0 and zero dispersion.
// That centroid is a placeholder and does not name a real location.
type ZoneCentroid struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	Count            int     `json:"count"`
	DispersionMeters float64 `json:"dispersion_meters"`
}

// Coverage describes how well the points are geocoded and how they spread.
type Coverage struct {
	PctWithCoordinates       float64                 `json:"pct_with_coordinates"`
	AvgNearestNeighborMeters float64                 `json:"avg_nearest_neighbor_meters"`
	ZoneCentroids            map[string]ZoneCentroid `json:"zone_centroids"`
}

type coord struct {
	lat, lng float64
}

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	return cache.HaversineMeters(lat1, lng1, lat2, lng2)
}

// GeoCoverage computes coverage metrics over points.
func GeoCoverage(points []models.PointOfSale) Coverage {
	cov := Coverage{ZoneCentroids: make(map[string]ZoneCentroid)}
	if len(points) == 0 {
		return cov
	}

	coords := make([]coord, 0, len(points))
	zones := make(map[string][]coord)
	counts := make(map[string]int)
	for i := range points {
		p := &points[i]
		z := ZoneOf(p)
		counts[z]++
		if !p.HasCoordinates() {
			continue
		}
		c := coord{lat: *p.Latitude, lng: *p.Longitude}
		coords = append(coords, c)
		zones[z] = append(zones[z], c)
	}

	cov.PctWithCoordinates = float64(len(coords)) / float64(len(points)) * 100
	cov.AvgNearestNeighborMeters = avgNearestNeighbor(coords)

	for z, n := range counts {
		cov.ZoneCentroids[z] = centroid(zones[z], n)
	}
	return cov
}

// avgNearestNeighbor needs at least two coordinates.
func avgNearestNeighbor(coords []coord) float64 {
	if len(coords) < 2 {
		return 0
	}
	grid := cache.NewSpatialHashGrid(neighborCellKm)
	for i, c := range coords {
		grid.Insert(strconv.Itoa(i), c.lat, c.lng)
	}
	minima := make([]float64, 0, len(coords))
	for i, c := range coords {
		if _, d, ok := grid.Nearest(c.lat, c.lng, strconv.Itoa(i)); ok && isFinite(d) {
			minima = append(minima, d)
		}
	}
	return mean(minima)
}

func centroid(members []coord, count int) ZoneCentroid {
	zc := ZoneCentroid{Count: count}
	if len(members) == 0 {
		return zc
	}
	lats := make([]float64, len(members))
	lngs := make([]float64, len(members))
	for i, c := range members {
		lats[i] = c.lat
		lngs[i] = c.lng
	}
	zc.Lat = mean(lats)
	zc.Lng = mean(lngs)

	dists := make([]float64, len(members))
	for i, c := range members {
		dists[i] = Haversine(zc.Lat, zc.Lng, c.lat, c.lng)
	}
	zc.DispersionMeters = mean(dists)
	return zc
}
