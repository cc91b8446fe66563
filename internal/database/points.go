// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/posmap/internal/models"
)

const pointColumns = `id, latitude, longitude, description, sale, zone, created_at, updated_at`

const pointsTable = "points_of_sale"

func scanPoint(row rowScanner) (models.PointOfSale, error) {
	var (
		p        models.PointOfSale
		lat, lng sql.NullFloat64
		updated  sql.NullTime
	)
	if err := row.Scan(&p.ID, &lat, &lng, &p.Description, &p.Sale, &p.Zone, &p.CreatedAt, &updated); err != nil {
		return p, err
	}
	if lat.Valid {
		p.Latitude = models.Float64(lat.Float64)
	}
	if lng.Valid {
		p.Longitude = models.Float64(lng.Float64)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if updated.Valid {
		t := updated.Time.UTC()
		p.UpdatedAt = &t
	}
	return p, nil
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// ListPoints returns one page of points ordered by id together with the
// total number of stored points.
func (db *DB) ListPoints(ctx context.Context, offset, limit int) (points []models.PointOfSale, total int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", pointsTable, time.Now(), &err)

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM points_of_sale`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count points: %w", err)
	}

	points, err = queryAndScan(ctx, db.conn,
		`SELECT `+pointColumns+` FROM points_of_sale ORDER BY id LIMIT ? OFFSET ?`,
		[]interface{}{limit, offset}, scanPoint)
	if err != nil {
		return nil, 0, fmt.Errorf("list points: %w", err)
	}
	if points == nil {
		points = []models.PointOfSale{}
	}
	return points, total, nil
}

// AllPoints returns every stored point ordered by id. It feeds the
// analytics and report endpoints.
func (db *DB) AllPoints(ctx context.Context) (points []models.PointOfSale, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", pointsTable, time.Now(), &err)

	points, err = queryAndScan(ctx, db.conn,
		`SELECT `+pointColumns+` FROM points_of_sale ORDER BY id`, nil, scanPoint)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	if points == nil {
		points = []models.PointOfSale{}
	}
	return points, nil
}

// GetPoint returns the point with the given id or ErrPointNotFound.
func (db *DB) GetPoint(ctx context.Context, id int64) (p *models.PointOfSale, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", pointsTable, time.Now(), &err)

	point, err := scanPoint(db.conn.QueryRowContext(ctx,
		`SELECT `+pointColumns+` FROM points_of_sale WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get point %d: %w", id, err)
	}
	return &point, nil
}

// CreatePoint stores in and returns the stored record with its assigned id
// and creation time. in must already be normalized and validated.
func (db *DB) CreatePoint(ctx context.Context, in models.PointInput) (p *models.PointOfSale, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", pointsTable, time.Now(), &err)

	created := db.now()
	var id int64
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO points_of_sale (latitude, longitude, description, sale, zone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		nullableFloat(in.Latitude), nullableFloat(in.Longitude), in.Description, in.Sale, in.Zone, created,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create point: %w", err)
	}

	return &models.PointOfSale{
		ID:          id,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Description: in.Description,
		Sale:        in.Sale,
		Zone:        in.Zone,
		CreatedAt:   created,
	}, nil
}

// UpdatePoint replaces the editable fields of point id and stamps
// updated_at. It returns ErrPointNotFound when no row matches.
func (db *DB) UpdatePoint(ctx context.Context, id int64, in models.PointInput) (p *models.PointOfSale, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", pointsTable, time.Now(), &err)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE points_of_sale
		 SET latitude = ?, longitude = ?, description = ?, sale = ?, zone = ?, updated_at = ?
		 WHERE id = ?`,
		nullableFloat(in.Latitude), nullableFloat(in.Longitude), in.Description, in.Sale, in.Zone, db.now(), id)
	if err != nil {
		return nil, fmt.Errorf("update point %d: %w", id, err)
	}
	if err = requireAffected(res); err != nil {
		return nil, err
	}

	point, err := scanPoint(db.conn.QueryRowContext(ctx,
		`SELECT `+pointColumns+` FROM points_of_sale WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("reload point %d: %w", id, err)
	}
	return &point, nil
}

// DeletePoint removes point id. It returns ErrPointNotFound when no row
// matches.
func (db *DB) DeletePoint(ctx context.Context, id int64) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("delete", pointsTable, time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `DELETE FROM points_of_sale WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete point %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrPointNotFound
	}
	return nil
}

// salesByZoneQuery groups blank zones under the unassigned label and orders
// by total descending, then zone name.
const salesByZoneQuery = `
SELECT COALESCE(NULLIF(TRIM(zone), ''), '` + models.UnassignedZone + `') AS zone_name,
       SUM(sale) AS total_sale,
       COUNT(*) AS point_count
FROM points_of_sale
GROUP BY zone_name
ORDER BY total_sale DESC, zone_name`

// SalesByZone returns the per-zone sale totals.
func (db *DB) SalesByZone(ctx context.Context) (zones []models.ZoneSales, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("aggregate", pointsTable, time.Now(), &err)

	zones, err = queryAndScan(ctx, db.conn, salesByZoneQuery, nil, func(row rowScanner) (models.ZoneSales, error) {
		var (
			z     models.ZoneSales
			count int64
		)
		if err := row.Scan(&z.Zone, &z.TotalSale, &count); err != nil {
			return z, err
		}
		z.TotalSale = models.Round(z.TotalSale, 2)
		z.Count = int(count)
		return z, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sales by zone: %w", err)
	}
	if zones == nil {
		zones = []models.ZoneSales{}
	}
	return zones, nil
}
