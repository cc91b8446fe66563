// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

// Package sessiontest provides a manual clock, a manual scheduler and a stub
// auth gateway for deterministic session tests.
package sessiontest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/posmap/internal/models"
)

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now implements session.Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Add moves the clock forward by d.
func (c *Clock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type task struct {
	id       int
	due      time.Time
	fn       func()
	canceled bool
}

// Scheduler runs callbacks when Advance moves its clock past their due time.
type Scheduler struct {
	clock *Clock

	mu     sync.Mutex
	nextID int
	tasks  []*task
}

// NewScheduler returns a scheduler driven by clock.
func NewScheduler(clock *Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Schedule implements session.Scheduler.
func (s *Scheduler) Schedule(d time.Duration, fn func()) func() {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	s.nextID++
	t := &task{id: s.nextID, due: s.clock.Now().Add(d), fn: fn}
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		t.canceled = true
		s.mu.Unlock()
	}
}

// Pending returns the number of scheduled, not yet run, callbacks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.canceled {
			n++
		}
	}
	return n
}

// NextDue returns the due time of the earliest pending callback.
func (s *Scheduler) NextDue() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *task
	for _, t := range s.tasks {
		if t.canceled {
			continue
		}
		if best == nil || t.due.Before(best.due) {
			best = t
		}
	}
	if best == nil {
		return time.Time{}, false
	}
	return best.due, true
}

// Advance moves the clock forward by d and runs every callback that became
// due, earliest first. Callbacks run without the scheduler lock held and
// may schedule further callbacks.
func (s *Scheduler) Advance(d time.Duration) {
	s.clock.Add(d)
	for {
		t := s.popDue()
		if t == nil {
			return
		}
		t.fn()
	}
}

func (s *Scheduler) popDue() *task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.canceled {
			live = append(live, t)
		}
	}
	s.tasks = live
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].due.Equal(s.tasks[j].due) {
			return s.tasks[i].id < s.tasks[j].id
		}
		return s.tasks[i].due.Before(s.tasks[j].due)
	})
	if len(s.tasks) == 0 || s.tasks[0].due.After(now) {
		return nil
	}
	t := s.tasks[0]
	s.tasks = s.tasks[1:]
	return t
}

// Gateway is a programmable AuthGateway.
type Gateway struct {
	mu sync.Mutex

	LoginResponse    *models.LoginResponse
	LoginErr         error
	RegisterResponse *models.AuthResponse
	RegisterErr      error

	LoginCalls    []models.LoginRequest
	RegisterCalls []models.RegisterRequest
}

// Login implements session.AuthGateway.
func (g *Gateway) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.LoginCalls = append(g.LoginCalls, req)
	return g.LoginResponse, g.LoginErr
}

// Register implements session.AuthGateway.
func (g *Gateway) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.RegisterCalls = append(g.RegisterCalls, req)
	return g.RegisterResponse, g.RegisterErr
}

// AcceptLogin returns a gateway that accepts any credentials as user.
func AcceptLogin(user models.User, token string) *Gateway {
	return &Gateway{
		LoginResponse:    &models.LoginResponse{Success: true, User: &user, Token: token},
		RegisterResponse: &models.AuthResponse{Success: true},
	}
}
