// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package cache

import (
	"math"
	"sync"
)

// EarthRadiusMeters is the sphere radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

const degToRad = math.Pi / 180

// SpatialHashGrid divides the globe into square lat/lng cells so proximity
// lookups only touch cells near the query point.
//
// Columns wrap at the antimeridian. The cell size in degrees is adjusted so
// a whole number of columns spans 360 degrees.
//
// Time Complexity:
//   - Insert: O(1)
//   - Nearest: O(k) where k = entries in the cells visited before the
//     search can stop, bounded by a scan of every occupied cell
type SpatialHashGrid struct {
	mu      sync.RWMutex
	cellDeg float64
	cols    int
	cells   map[CellKey][]SpatialEntry
	index   map[string]CellKey

	minY, maxY int
	// maxAbsLat only grows; it bounds how narrow a column can get.
	maxAbsLat float64
}

// CellKey is a grid cell coordinate. X is the column, Y the row counted
// from the south pole.
type CellKey struct {
	X, Y int
}

// SpatialEntry is one indexed coordinate.
type SpatialEntry struct {
	ID  string
	Lat float64
	Lng float64
}

// NewSpatialHashGrid creates a grid with cells of roughly cellSizeKm on a
// side at the equator. A non-positive size means 1 km.
func NewSpatialHashGrid(cellSizeKm float64) *SpatialHashGrid {
	if cellSizeKm <= 0 {
		cellSizeKm = 1
	}
	kmPerDeg := EarthRadiusMeters * degToRad / 1000
	cols := int(math.Ceil(360 / (cellSizeKm / kmPerDeg)))
	if cols < 1 {
		cols = 1
	}
	return &SpatialHashGrid{
		cellDeg: 360 / float64(cols),
		cols:    cols,
		cells:   make(map[CellKey][]SpatialEntry),
		index:   make(map[string]CellKey),
	}
}

func (g *SpatialHashGrid) cellOf(lat, lng float64) CellKey {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	x := int(lng / g.cellDeg)
	if x >= g.cols {
		x = g.cols - 1
	}
	return CellKey{X: x, Y: int(math.Floor((lat + 90) / g.cellDeg))}
}

// Insert adds an entry. An existing entry with the same ID is replaced.
func (g *SpatialHashGrid) Insert(id string, lat, lng float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.index[id]; ok {
		g.removeFromCellUnlocked(old, id)
	}

	key := g.cellOf(lat, lng)
	if len(g.index) == 0 {
		g.minY, g.maxY = key.Y, key.Y
	}
	g.minY = min(g.minY, key.Y)
	g.maxY = max(g.maxY, key.Y)
	g.maxAbsLat = max(g.maxAbsLat, math.Abs(lat))

	g.cells[key] = append(g.cells[key], SpatialEntry{ID: id, Lat: lat, Lng: lng})
	g.index[id] = key
}

func (g *SpatialHashGrid) removeFromCellUnlocked(key CellKey, id string) {
	entries := g.cells[key]
	for i, e := range entries {
		if e.ID == id {
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			break
		}
	}
	if len(entries) == 0 {
		delete(g.cells, key)
	} else {
		g.cells[key] = entries
	}
	delete(g.index, id)
}

// Size returns the number of entries.
func (g *SpatialHashGrid) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.index)
}

// Nearest returns the entry closest to (lat, lng), ignoring the entry with
// ID exclude, and its distance in meters. ok is false when no other entry
// exists. Cells are searched in rings around the query cell until nothing
// outside the visited rings can be closer than the best match.
func (g *SpatialHashGrid) Nearest(lat, lng float64, exclude string) (best SpatialEntry, dist float64, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	dist = math.Inf(1)
	center := g.cellOf(lat, lng)
	scan := func(key CellKey) {
		for _, e := range g.cells[key] {
			if e.ID == exclude {
				continue
			}
			if d := HaversineMeters(lat, lng, e.Lat, e.Lng); d < dist {
				best, dist = e, d
			}
		}
	}

	maxRing := max(g.cols/2, center.Y-g.minY, g.maxY-center.Y)
	phiMax := math.Min(90, math.Max(math.Abs(lat), g.maxAbsLat))

	for r := 0; r <= maxRing; r++ {
		if r > 0 && dist <= g.outsideBound(r-1, phiMax) {
			break
		}
		if ringSize(r) > len(g.cells) {
			// Sparse grid: walking the ring costs more than checking
			// every occupied cell not yet visited.
			for key := range g.cells {
				if g.ring(center, key) >= r {
					scan(key)
				}
			}
			break
		}
		g.eachRingCell(center, r, scan)
	}
	return best, dist, !math.IsInf(dist, 1)
}

func ringSize(r int) int {
	if r == 0 {
		return 1
	}
	return 8 * r
}

// ring is the Chebyshev distance between two cells, with columns measured
// the short way around.
func (g *SpatialHashGrid) ring(a, b CellKey) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dx = min(dx, g.cols-dx)
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}

// eachRingCell calls fn for every occupied cell at ring distance r from
// center, visiting each cell once even when the ring wraps.
func (g *SpatialHashGrid) eachRingCell(center CellKey, r int, fn func(CellKey)) {
	lo, hi := -r, r
	if hi-lo+1 > g.cols {
		lo = -(g.cols - 1) / 2
		hi = lo + g.cols - 1
	}
	for dy := -r; dy <= r; dy++ {
		for dx := lo; dx <= hi; dx++ {
			x := ((center.X+dx)%g.cols + g.cols) % g.cols
			key := CellKey{X: x, Y: center.Y + dy}
			if _, ok := g.cells[key]; !ok || g.ring(center, key) != r {
				continue
			}
			fn(key)
		}
	}
}

// outsideBound is a lower bound in meters on the distance from a point in
// the center cell to any point outside the block of rings 0..k. Such a
// point is at least k cells away by row or by column. phiMax bounds the
// absolute latitude of both ends.
func (g *SpatialHashGrid) outsideBound(k int, phiMax float64) float64 {
	span := float64(k) * g.cellDeg * degToRad
	bound := EarthRadiusMeters * span
	if 2*k+1 < g.cols {
		lngBound := 2 * EarthRadiusMeters *
			math.Asin(math.Cos(phiMax*degToRad)*math.Sin(math.Min(span, math.Pi)/2))
		bound = math.Min(bound, lngBound)
	}
	return bound
}

// HaversineMeters returns the great-circle distance in meters between two
// points given in decimal degrees.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	h := sinDLat*sinDLat + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sinDLng*sinDLng
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
