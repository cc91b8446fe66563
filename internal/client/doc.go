// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package client implements the Auth Gateway and Data Gateway contracts over the
PosMap HTTP API.

Every call is paced by a token-bucket limiter (golang.org/x/time/rate) and
runs through a circuit breaker (github.com/sony/gobreaker/v2). Transport
failures and 5xx responses count against the breaker; 4xx responses are
answers and do not.

Point records are normalized once, here, into models.PointOfSale. The
normalizer accepts the field spellings produced by older deployments
(latitude/lat, zone as a string or as {"name": ...}, numeric strings,
camelCase timestamps), so the analytics code only ever sees the canonical
shape.

Usage:

	c := client.New(client.Config{BaseURL: "http://localhost:8080"})
	points, err := c.ListAllPoints(ctx)
*/
package client
