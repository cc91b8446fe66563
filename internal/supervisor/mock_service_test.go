// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

var errSimulated = errors.New("simulated failure")

// stubService fails a configured number of times, then runs until its
// context is canceled.
type stubService struct {
	name     string
	starts   atomic.Int32
	failures atomic.Int32
	failN    int32
}

func newStubService(name string, failN int32) *stubService {
	return &stubService{name: name, failN: failN}
}

func (s *stubService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	if s.failures.Add(1) <= s.failN {
		return errSimulated
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) String() string { return s.name }
