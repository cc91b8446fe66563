// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/posmap/internal/models"
)

const (
	// DefaultPageSize is used when a page size outside (0, MaxPageSize] is given.
	DefaultPageSize = 50
	// MaxPageSize is the largest page the server returns.
	MaxPageSize = 500
)

// ClampPage applies the Data Gateway pagination rules: pages are 1-based and
// the size must fall in (0, MaxPageSize], otherwise DefaultPageSize is used.
func ClampPage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// ListPoints returns one page of points ordered by id.
func (c *Client) ListPoints(ctx context.Context, page, size int) ([]models.PointOfSale, error) {
	points, _, err := c.listPage(ctx, page, size)
	return points, err
}

// ListAllPoints follows pagination until the server reports no more pages.
func (c *Client) ListAllPoints(ctx context.Context) ([]models.PointOfSale, error) {
	var all []models.PointOfSale
	for page := 1; ; page++ {
		points, pg, err := c.listPage(ctx, page, MaxPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, points...)
		if pg == nil || !pg.HasMore || len(points) == 0 {
			return all, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, page, size int) ([]models.PointOfSale, *Pagination, error) {
	page, size = ClampPage(page, size)
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	resp, err := c.do(ctx, http.MethodGet, "/api/v1/points?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("list points: %w", err)
	}
	var data json.RawMessage
	pg, err := decodeData(resp, &data)
	if err != nil {
		return nil, nil, fmt.Errorf("list points: %w", err)
	}
	points, err := NormalizePoints(data)
	if err != nil {
		return nil, nil, fmt.Errorf("list points: %w", err)
	}
	return points, pg, nil
}

// GetPoint returns the point with id, or an error wrapping ErrNotFound.
func (c *Client) GetPoint(ctx context.Context, id int64) (*models.PointOfSale, error) {
	resp, err := c.do(ctx, http.MethodGet, pointPath(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get point %d: %w", id, err)
	}
	return decodePoint(resp, id)
}

// CreatePoint stores a new point and returns it with its assigned id.
func (c *Client) CreatePoint(ctx context.Context, in models.PointInput) (*models.PointOfSale, error) {
	in.Normalize()
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/points", in)
	if err != nil {
		return nil, fmt.Errorf("create point: %w", err)
	}
	return decodePoint(resp, 0)
}

// UpdatePoint replaces the fields of point id.
func (c *Client) UpdatePoint(ctx context.Context, id int64, in models.PointInput) error {
	in.Normalize()
	resp, err := c.do(ctx, http.MethodPut, pointPath(id), in)
	if err != nil {
		return fmt.Errorf("update point %d: %w", id, err)
	}
	if _, err := decodeData(resp, nil); err != nil {
		return fmt.Errorf("update point %d: %w", id, err)
	}
	return nil
}

// DeletePoint removes point id.
func (c *Client) DeletePoint(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, pointPath(id), nil)
	if err != nil {
		return fmt.Errorf("delete point %d: %w", id, err)
	}
	if _, err := decodeData(resp, nil); err != nil {
		return fmt.Errorf("delete point %d: %w", id, err)
	}
	return nil
}

// SalesByZone returns the server's per-zone totals, largest first.
func (c *Client) SalesByZone(ctx context.Context) ([]models.ZoneSales, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/points/sales-by-zone", nil)
	if err != nil {
		return nil, fmt.Errorf("sales by zone: %w", err)
	}
	var rows []map[string]json.RawMessage
	if _, err := decodeData(resp, &rows); err != nil {
		return nil, fmt.Errorf("sales by zone: %w", err)
	}

	out := make([]models.ZoneSales, 0, len(rows))
	for _, row := range rows {
		zs := models.ZoneSales{Zone: ResolveZone(row)}
		if v, ok := lookup(row, []string{"total_sale", "totalSale", "TotalSale", "total"}); ok {
			zs.TotalSale, _ = parseNumber(v)
		}
		if v, ok := lookup(row, []string{"count", "Count"}); ok {
			n, _ := parseNumber(v)
			zs.Count = int(n)
		}
		out = append(out, zs)
	}
	return out, nil
}

func pointPath(id int64) string {
	return "/api/v1/points/" + strconv.FormatInt(id, 10)
}

func decodePoint(resp *rawResponse, id int64) (*models.PointOfSale, error) {
	var raw map[string]json.RawMessage
	if _, err := decodeData(resp, &raw); err != nil {
		if id != 0 {
			return nil, fmt.Errorf("point %d: %w", id, err)
		}
		return nil, err
	}
	p, err := NormalizePoint(raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
