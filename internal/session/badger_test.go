// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package session

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/session/sessiontest"
)

func newTestBadger(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestBadgerStorageGetSetRemove(t *testing.T) {
	db := newTestBadger(t)
	s := NewBadgerStorage(db)
	defer s.Close()

	if _, ok, err := s.Get(UserKey); err != nil || ok {
		t.Fatalf("Get on empty db = %v, %v", ok, err)
	}
	if err := s.Set(UserKey, aliceJSON); err != nil {
		t.Fatal(err)
	}

	other := NewBadgerStorage(db)
	defer other.Close()
	v, ok, err := other.Get(UserKey)
	if err != nil || !ok || v != aliceJSON {
		t.Errorf("other.Get() = %q, %v, %v", v, ok, err)
	}

	if err := other.Remove(UserKey); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(UserKey); ok {
		t.Error("tombstoned key should read as missing")
	}
	if err := s.Remove(UserKey); err != nil {
		t.Errorf("removing a missing key: %v", err)
	}
}

func TestBadgerStorageSubscribeFiltersOrigin(t *testing.T) {
	db := newTestBadger(t)
	a := NewBadgerStorage(db)
	defer a.Close()
	b := NewBadgerStorage(db)
	defer b.Close()

	var fromA, fromB recorder
	unsubA := a.Subscribe(fromA.record)
	defer unsubA()
	unsubB := b.Subscribe(fromB.record)
	defer unsubB()

	if err := a.Set(LastActivityKey, "1000"); err != nil {
		t.Fatal(err)
	}
	if err := a.Remove(LastActivityKey); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "two changes at B", func() bool { return len(fromB.snapshot()) == 2 })

	got := fromB.snapshot()
	if got[0] != (Change{Key: LastActivityKey, Value: "1000"}) {
		t.Errorf("first change = %+v", got[0])
	}
	if got[1] != (Change{Key: LastActivityKey, Removed: true}) {
		t.Errorf("second change = %+v", got[1])
	}
	if n := len(fromA.snapshot()); n != 0 {
		t.Errorf("A received %d of its own changes", n)
	}
}

func TestBadgerStorageSharedSession(t *testing.T) {
	db := newTestBadger(t)
	quiet := logging.NewTestLogger(io.Discard)
	clock := sessiontest.NewClock(t0)
	sched := sessiontest.NewScheduler(clock)
	gw := sessiontest.AcceptLogin(alice, "tok")

	sa := NewBadgerStorage(db)
	defer sa.Close()
	sb := NewBadgerStorage(db)
	defer sb.Close()

	a := NewManager(sa, gw, Options{Clock: clock, Scheduler: sched, Logger: &quiet})
	defer a.Close()
	b := NewManager(sb, gw, Options{Clock: clock, Scheduler: sched, Logger: &quiet})
	defer b.Close()

	if _, err := a.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "B to see the login", func() bool { return b.User() != nil })

	a.Logout()
	waitFor(t, "B to see the logout", func() bool { return b.User() == nil })
}

func TestOpenBadgerStoragePersists(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenBadgerStorage(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStorage() error = %v", err)
	}
	if err := s.Set(UserKey, aliceJSON); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBadgerStorage(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if v, ok, _ := reopened.Get(UserKey); !ok || v != aliceJSON {
		t.Errorf("reopened Get() = %q, %v", v, ok)
	}
}
