// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tomtom215/posmap/internal/models"
	"github.com/tomtom215/posmap/internal/session"
)

type fakeTracker struct {
	calls int
	left  time.Duration
}

func (f *fakeTracker) RecordActivity(force bool) {
	if force {
		panic("tui must not force activity")
	}
	f.calls++
}

func (f *fakeTracker) Remaining() time.Duration { return f.left }

func newTestModel(tracker *fakeTracker) dashboardModel {
	load := func(context.Context) ([]models.PointOfSale, error) {
		return []models.PointOfSale{
			{ID: 1, Description: "Uno", Sale: 100, Zone: "Centro"},
			{ID: 2, Description: "Dos", Sale: 50, Zone: "Polanco"},
		}, nil
	}
	m := newDashboardModel(tracker, load, models.User{DisplayName: "Ana", Zone: "Polanco"}, time.UTC)
	m.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return m
}

func update(t *testing.T, m dashboardModel, msg tea.Msg) (dashboardModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	dm, ok := next.(dashboardModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return dm, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestTUI_KeyPressRecordsActivity(t *testing.T) {
	tracker := &fakeTracker{left: 59 * time.Minute}
	m := newTestModel(tracker)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if tracker.calls != 1 {
		t.Errorf("RecordActivity calls = %d, want 1", tracker.calls)
	}
	if cmd != nil {
		t.Error("unbound key should not produce a command")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabZones || tracker.calls != 2 {
		t.Errorf("tab = %v calls = %d", m.tab, tracker.calls)
	}

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !isQuit(cmd) || tracker.calls != 3 {
		t.Errorf("q: quit = %v calls = %d", isQuit(cmd), tracker.calls)
	}
}

func TestTUI_SessionEndQuits(t *testing.T) {
	tracker := &fakeTracker{}
	m := newTestModel(tracker)

	m, cmd := update(t, m, sessionEndedMsg{reason: session.ReasonExpired})
	if !isQuit(cmd) {
		t.Fatal("session end should quit the program")
	}
	if m.ended != session.ReasonExpired {
		t.Errorf("ended = %q", m.ended)
	}
	if tracker.calls != 0 {
		t.Error("session end is not user activity")
	}
}

func TestTUI_LoadAndRender(t *testing.T) {
	tracker := &fakeTracker{left: 30 * time.Minute}
	m := newTestModel(tracker)

	if !strings.Contains(m.View(), "loading points") {
		t.Error("initial view should show the loading state")
	}

	msg := m.fetch()()
	m, _ = update(t, m, msg)
	if m.loading || m.kpis.TotalPoints != 2 || m.kpis.TotalSales != 150 {
		t.Fatalf("after load: loading %v kpis %+v", m.loading, m.kpis)
	}
	if len(m.zones) != 2 || m.zones[0].Zone != "Centro" {
		t.Errorf("zones = %+v", m.zones)
	}

	view := m.View()
	for _, want := range []string{"[Dashboard]", "Ana (Polanco)", "30m0s", "$150.00"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = update(t, m, pointsLoadedMsg{err: errors.New("server down")})
	if !strings.Contains(m.View(), "error: server down") {
		t.Error("load error not shown")
	}
}
