// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWatch(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ws" {
			t.Errorf("path = %s", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, msg := range []map[string]interface{}{
			{"type": "pong", "data": nil},
			{"type": "point_created", "data": map[string]interface{}{
				"id": 4, "timestamp": "2026-05-01T12:00:00Z",
				"point": map[string]interface{}{"id": 4, "description": "Kiosk", "sale": 50, "zone": ""},
			}},
			{"type": "point_deleted", "data": map[string]interface{}{"id": 2, "timestamp": "2026-05-01T12:01:00Z"}},
		} {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		time.Sleep(50 * time.Millisecond)
	}), "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var events []ChangeEvent
	if err := c.Watch(ctx, func(ev ChangeEvent) { events = append(events, ev) }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Type != "point_created" || events[0].Point == nil || events[0].Point.Zone != "Unassigned" {
		t.Errorf("created event = %+v", events[0])
	}
	if events[1].Type != "point_deleted" || events[1].ID != 2 || events[1].Point != nil {
		t.Errorf("deleted event = %+v", events[1])
	}
	if events[1].Timestamp.IsZero() {
		t.Error("timestamp not parsed")
	}
}
