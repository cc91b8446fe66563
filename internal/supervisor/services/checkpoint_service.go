// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package services

import (
	"context"
	"time"

	"github.com/tomtom215/posmap/internal/logging"
)

// Checkpointer is satisfied by *database.DB.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService flushes the DuckDB write-ahead log into the database
// file on a fixed interval and once more on shutdown.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
	name     string
}

// NewCheckpointService creates the service. A non-positive interval means
// five minutes.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CheckpointService{
		db:       db,
		interval: interval,
		name:     "duckdb-checkpoint",
	}
}

// Serve implements suture.Service. A failed checkpoint is logged and
// retried on the next tick rather than restarting the service.
func (c *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.checkpoint(ctx)
		case <-ctx.Done():
			// Final flush with a short deadline of its own.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.checkpoint(flushCtx)
			cancel()
			return ctx.Err()
		}
	}
}

func (c *CheckpointService) checkpoint(ctx context.Context) {
	start := time.Now()
	if err := c.db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("DuckDB checkpoint failed")
		return
	}
	logging.Debug().Dur("duration", time.Since(start)).Msg("DuckDB checkpoint complete")
}

func (c *CheckpointService) String() string {
	return c.name
}
