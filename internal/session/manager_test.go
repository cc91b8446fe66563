// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package session

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/models"
	"github.com/tomtom215/posmap/internal/session/sessiontest"
)

var t0 = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

var alice = models.User{ID: 1, Username: "alice", DisplayName: "Alice", Zone: "North"}

type harness struct {
	store *MemoryStorage
	clock *sessiontest.Clock
	sched *sessiontest.Scheduler
	gw    *sessiontest.Gateway
}

func newHarness() *harness {
	clock := sessiontest.NewClock(t0)
	return &harness{
		store: NewMemoryStorage(),
		clock: clock,
		sched: sessiontest.NewScheduler(clock),
		gw:    sessiontest.AcceptLogin(alice, "tok-123"),
	}
}

func (h *harness) manager(t *testing.T, storage Storage) *Manager {
	t.Helper()
	quiet := logging.NewTestLogger(io.Discard)
	m := NewManager(storage, h.gw, Options{Clock: h.clock, Scheduler: h.sched, Logger: &quiet})
	t.Cleanup(m.Close)
	return m
}

// countingStorage counts writes of LastActivityKey.
type countingStorage struct {
	Storage
	mu     sync.Mutex
	writes int
}

func (c *countingStorage) Set(key, value string) error {
	if key == LastActivityKey {
		c.mu.Lock()
		c.writes++
		c.mu.Unlock()
	}
	return c.Storage.Set(key, value)
}

func (c *countingStorage) activityWrites() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// deafStorage never delivers change notifications.
type deafStorage struct {
	Storage
}

func (deafStorage) Subscribe(func(Change)) func() { return func() {} }

// failingStorage fails every read.
type failingStorage struct {
	Storage
}

func (failingStorage) Get(string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func mustGet(t *testing.T, s Storage, key string) (string, bool) {
	t.Helper()
	v, ok, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get(%s): %v", key, err)
	}
	return v, ok
}

func TestLoginSuccess(t *testing.T) {
	h := newHarness()
	view := h.store.View()
	m := h.manager(t, view)

	res, err := m.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !res.OK {
		t.Fatalf("Login() = %+v, want OK", res)
	}

	u := m.User()
	if u == nil || u.Username != "alice" {
		t.Fatalf("User() = %+v, want alice", u)
	}
	if u.Token != "tok-123" {
		t.Errorf("Token = %q, want tok-123", u.Token)
	}
	if got := m.Remaining(); got != InactivityTimeout {
		t.Errorf("Remaining() = %v, want %v", got, InactivityTimeout)
	}
	if n := h.sched.Pending(); n != 1 {
		t.Errorf("pending timers = %d, want 1", n)
	}
	if due, _ := h.sched.NextDue(); !due.Equal(t0.Add(InactivityTimeout)) {
		t.Errorf("timer due %v, want %v", due, t0.Add(InactivityTimeout))
	}

	raw, ok := mustGet(t, view, UserKey)
	if !ok {
		t.Fatal("user not persisted")
	}
	var stored models.User
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("persisted user undecodable: %v", err)
	}
	if stored.Username != "alice" || stored.Token != "tok-123" {
		t.Errorf("persisted user = %+v", stored)
	}
	last, _ := mustGet(t, view, LastActivityKey)
	if last != strconv.FormatInt(t0.UnixMilli(), 10) {
		t.Errorf("persisted last activity = %s, want %d", last, t0.UnixMilli())
	}
}

func TestLoginRejected(t *testing.T) {
	tests := []struct {
		name    string
		resp    *models.LoginResponse
		wantMsg string
	}{
		{"gateway message", &models.LoginResponse{Success: false, Message: "Username and password are required."}, "Username and password are required."},
		{"default message", &models.LoginResponse{Success: false}, MsgInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.gw.LoginResponse = tt.resp
			view := h.store.View()
			m := h.manager(t, view)

			res, err := m.Login(context.Background(), "alice", "bad")
			if err != nil {
				t.Fatalf("Login() error = %v, want nil for rejection", err)
			}
			if res.OK || res.Message != tt.wantMsg {
				t.Errorf("Login() = %+v, want message %q", res, tt.wantMsg)
			}
			if m.User() != nil {
				t.Error("rejected login must not set a user")
			}
			if _, ok := mustGet(t, view, UserKey); ok {
				t.Error("rejected login must not persist anything")
			}
			if h.sched.Pending() != 0 {
				t.Error("rejected login must not arm a timer")
			}
		})
	}
}

func TestLoginGatewayFailure(t *testing.T) {
	h := newHarness()
	h.gw.LoginErr = errors.New("connection refused")
	m := h.manager(t, h.store.View())

	_, err := m.Login(context.Background(), "alice", "pw")
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("Login() error = %v, want ErrGateway", err)
	}
	if m.User() != nil {
		t.Error("gateway failure must not set a user")
	}

	h.gw.LoginErr = nil
	h.gw.LoginResponse = &models.LoginResponse{Success: true}
	if _, err := m.Login(context.Background(), "alice", "pw"); !errors.Is(err, ErrGateway) {
		t.Errorf("success without user: error = %v, want ErrGateway", err)
	}
}

func TestRegisterDoesNotTouchSession(t *testing.T) {
	h := newHarness()
	view := h.store.View()
	m := h.manager(t, view)

	res, err := m.Register(context.Background(), models.RegisterRequest{Username: "bob", Password: "longenough"})
	if err != nil || !res.OK {
		t.Fatalf("Register() = %+v, %v", res, err)
	}
	if m.User() != nil {
		t.Error("register must not log in")
	}

	h.gw.RegisterResponse = &models.AuthResponse{Success: false}
	res, err = m.Register(context.Background(), models.RegisterRequest{Username: "bob"})
	if err != nil || res.OK || res.Message != MsgRegisterFailed {
		t.Errorf("Register() = %+v, %v", res, err)
	}

	h.gw.RegisterErr = errors.New("timeout")
	if _, err := m.Register(context.Background(), models.RegisterRequest{}); !errors.Is(err, ErrGateway) {
		t.Errorf("Register() error = %v, want ErrGateway", err)
	}
	if _, ok := mustGet(t, view, UserKey); ok {
		t.Error("register must not persist a user")
	}
}

func TestInactivityExpiry(t *testing.T) {
	h := newHarness()
	view := h.store.View()
	m := h.manager(t, view)

	var reasons []Reason
	m.SetOnLogout(func(r Reason) { reasons = append(reasons, r) })

	if _, err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}

	h.sched.Advance(59 * time.Minute)
	if m.User() == nil {
		t.Fatal("session expired too early")
	}

	h.sched.Advance(time.Minute + time.Second)
	if m.User() != nil {
		t.Fatal("session should have expired at T0+60m")
	}
	if len(reasons) != 1 || reasons[0] != ReasonExpired {
		t.Errorf("logout reasons = %v, want [expired]", reasons)
	}
	if _, ok := mustGet(t, view, UserKey); ok {
		t.Error("expired session must remove the persisted user")
	}
	if _, ok := mustGet(t, view, LastActivityKey); ok {
		t.Error("expired session must remove the activity timestamp")
	}
	if h.sched.Pending() != 0 {
		t.Errorf("pending timers = %d after expiry", h.sched.Pending())
	}
}

func TestRecordActivityThrottle(t *testing.T) {
	h := newHarness()
	counting := &countingStorage{Storage: h.store.View()}
	m := h.manager(t, counting)

	if _, err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}
	if counting.activityWrites() != 1 {
		t.Fatalf("login writes = %d, want 1", counting.activityWrites())
	}

	h.clock.Add(5 * time.Second)
	m.RecordActivity(false)
	m.RecordActivity(false)
	if counting.activityWrites() != 1 {
		t.Errorf("writes within throttle = %d, want 1", counting.activityWrites())
	}

	h.clock.Add(15 * time.Second)
	m.RecordActivity(false)
	if counting.activityWrites() != 2 {
		t.Errorf("writes after throttle = %d, want 2", counting.activityWrites())
	}
	if !m.LastActivity().Equal(t0.Add(20 * time.Second)) {
		t.Errorf("LastActivity = %v", m.LastActivity())
	}

	h.clock.Add(time.Second)
	m.RecordActivity(true)
	if counting.activityWrites() != 3 {
		t.Errorf("forced write count = %d, want 3", counting.activityWrites())
	}
	if h.sched.Pending() != 1 {
		t.Errorf("pending timers = %d, want exactly 1", h.sched.Pending())
	}
}

func TestRecordActivityExtendsSession(t *testing.T) {
	h := newHarness()
	m := h.manager(t, h.store.View())
	if _, err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}

	h.sched.Advance(50 * time.Minute)
	m.RecordActivity(false)
	h.sched.Advance(50 * time.Minute)
	if m.User() == nil {
		t.Fatal("activity at T0+50m should keep the session alive at T0+100m")
	}
	h.sched.Advance(10*time.Minute + time.Second)
	if m.User() != nil {
		t.Error("session should expire 60m after the last activity")
	}
}

func TestRecordActivityWithoutUser(t *testing.T) {
	h := newHarness()
	view := h.store.View()
	m := h.manager(t, view)

	m.RecordActivity(true)
	if _, ok := mustGet(t, view, LastActivityKey); ok {
		t.Error("activity without a user must not persist anything")
	}
	if h.sched.Pending() != 0 {
		t.Error("activity without a user must not arm a timer")
	}
}

func TestLogoutIdempotent(t *testing.T) {
	h := newHarness()
	view := h.store.View()
	m := h.manager(t, view)

	calls := 0
	m.SetOnLogout(func(Reason) { calls++ })

	m.Logout()
	if calls != 0 {
		t.Error("logout without a session must not fire the callback")
	}

	if _, err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}
	m.Logout()
	m.Logout()

	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
	if m.User() != nil || m.Remaining() != 0 {
		t.Error("state not cleared")
	}
	if h.sched.Pending() != 0 {
		t.Error("timer not canceled")
	}
	if _, ok := mustGet(t, view, UserKey); ok {
		t.Error("persisted user not removed")
	}
}

func seed(t *testing.T, s Storage, user string, last time.Time) {
	t.Helper()
	if user != "" {
		if err := s.Set(UserKey, user); err != nil {
			t.Fatal(err)
		}
	}
	if !last.IsZero() {
		if err := s.Set(LastActivityKey, strconv.FormatInt(last.UnixMilli(), 10)); err != nil {
			t.Fatal(err)
		}
	}
}

const aliceJSON = `{"id":1,"username":"alice","display_name":"Alice","zone":"North","token":"tok-123"}`

func TestBootstrap(t *testing.T) {
	tests := []struct {
		name          string
		user          string
		last          time.Time
		wantUser      bool
		wantRemaining time.Duration
		wantCleared   bool
	}{
		{name: "no session", wantUser: false},
		{name: "live session", user: aliceJSON, last: t0.Add(-10 * time.Minute), wantUser: true, wantRemaining: 50 * time.Minute},
		{name: "exactly at timeout", user: aliceJSON, last: t0.Add(-InactivityTimeout), wantUser: true, wantRemaining: 0},
		{name: "expired session", user: aliceJSON, last: t0.Add(-61 * time.Minute), wantUser: false, wantCleared: true},
		{name: "missing timestamp", user: aliceJSON, wantUser: true, wantRemaining: InactivityTimeout},
		{name: "corrupt user", user: `{"id":`, last: t0, wantUser: false, wantCleared: true},
		{name: "user without username", user: `{"id":4}`, last: t0, wantUser: false, wantCleared: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			view := h.store.View()
			seed(t, view, tt.user, tt.last)

			m := h.manager(t, view)
			if got := m.User() != nil; got != tt.wantUser {
				t.Fatalf("user present = %v, want %v", got, tt.wantUser)
			}
			if tt.wantUser && m.Remaining() != tt.wantRemaining {
				t.Errorf("Remaining() = %v, want %v", m.Remaining(), tt.wantRemaining)
			}
			if tt.wantCleared {
				if _, ok := mustGet(t, view, UserKey); ok {
					t.Error("persisted user should be cleared")
				}
				if _, ok := mustGet(t, view, LastActivityKey); ok {
					t.Error("persisted timestamp should be cleared")
				}
			}
		})
	}
}

func TestBootstrapStorageReadError(t *testing.T) {
	h := newHarness()
	m := h.manager(t, failingStorage{Storage: h.store.View()})
	if m.User() != nil {
		t.Error("read error must be treated as no session")
	}
}

func TestCrossInstanceActivity(t *testing.T) {
	h := newHarness()
	a := h.manager(t, h.store.View())
	b := h.manager(t, h.store.View())

	if _, err := a.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}
	h.store.Flush()

	if u := b.User(); u == nil || u.Username != "alice" {
		t.Fatalf("instance B user = %+v, want alice", u)
	}

	h.sched.Advance(30 * time.Minute)
	a.RecordActivity(true)
	h.store.Flush()

	if !b.LastActivity().Equal(t0.Add(30 * time.Minute)) {
		t.Errorf("B LastActivity = %v, want %v", b.LastActivity(), t0.Add(30*time.Minute))
	}
	if b.Remaining() != InactivityTimeout {
		t.Errorf("B Remaining = %v, want %v", b.Remaining(), InactivityTimeout)
	}

	h.sched.Advance(45 * time.Minute)
	if a.User() == nil || b.User() == nil {
		t.Fatal("both instances should still be logged in at T0+75m")
	}

	h.sched.Advance(16 * time.Minute)
	h.store.Flush()
	if a.User() != nil || b.User() != nil {
		t.Error("both instances should expire at T0+90m")
	}
}

func TestCrossInstanceLogout(t *testing.T) {
	h := newHarness()
	a := h.manager(t, h.store.View())
	b := h.manager(t, h.store.View())

	var mu sync.Mutex
	var reasons []Reason
	b.SetOnLogout(func(r Reason) {
		mu.Lock()
		reasons = append(reasons, r)
		mu.Unlock()
	})

	if _, err := a.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}
	h.store.Flush()
	if b.User() == nil {
		t.Fatal("B did not pick up the login")
	}

	a.Logout()
	h.store.Flush()

	if b.User() != nil {
		t.Error("B should be logged out after A logs out")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(reasons) != 1 || reasons[0] != ReasonRemote {
		t.Errorf("B reasons = %v, want [remote]", reasons)
	}
	if h.sched.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", h.sched.Pending())
	}
}

func TestCrossInstanceCorruptUser(t *testing.T) {
	h := newHarness()
	a := h.manager(t, h.store.View())
	b := h.manager(t, h.store.View())

	var mu sync.Mutex
	var reasons []Reason
	b.SetOnLogout(func(r Reason) {
		mu.Lock()
		reasons = append(reasons, r)
		mu.Unlock()
	})

	if _, err := a.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}
	h.store.Flush()
	if b.User() == nil {
		t.Fatal("B did not pick up the login")
	}

	if err := h.store.View().Set(UserKey, `{"id":`); err != nil {
		t.Fatal(err)
	}
	h.store.Flush()

	if b.User() != nil {
		t.Errorf("B user = %+v, want nil after an undecodable record", b.User())
	}
	if a.User() != nil {
		t.Errorf("A user = %+v, want nil after an undecodable record", a.User())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(reasons) != 1 || reasons[0] != ReasonCorrupt {
		t.Errorf("B reasons = %v, want [%s]", reasons, ReasonCorrupt)
	}
}

func TestTimerRereadsPersistedActivity(t *testing.T) {
	h := newHarness()
	a := h.manager(t, h.store.View())
	if _, err := a.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}

	// B restores the session but never hears about later activity.
	b := h.manager(t, deafStorage{Storage: h.store.View()})
	if b.User() == nil {
		t.Fatal("B did not restore the session")
	}

	h.clock.Add(40 * time.Minute)
	a.RecordActivity(false)

	h.sched.Advance(20 * time.Minute)
	if b.User() == nil {
		t.Fatal("B expired although the persisted timestamp was refreshed")
	}
	if due, ok := h.sched.NextDue(); !ok || !due.Equal(t0.Add(100*time.Minute)) {
		t.Errorf("next due = %v, want %v", due, t0.Add(100*time.Minute))
	}
}

func TestCloseStopsTimer(t *testing.T) {
	h := newHarness()
	view := h.store.View()
	m := h.manager(t, view)
	if _, err := m.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}

	m.Close()
	h.sched.Advance(2 * time.Hour)

	if _, ok := mustGet(t, view, UserKey); !ok {
		t.Error("Close must keep the persisted session")
	}
}
