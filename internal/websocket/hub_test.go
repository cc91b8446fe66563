// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package websocket

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// startHub runs a hub until the returned cancel is called.
func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	return hub, func() {
		cancel()
		<-done
	}
}

// createTestClient creates a client with no connection
func createTestClient(hub *Hub) *Client {
	return &Client{id: nextClientID.Add(1), hub: hub, send: make(chan Message, 256)}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.GetClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub.clients == nil || hub.broadcast == nil || hub.Register == nil || hub.Unregister == nil {
		t.Fatal("hub not fully initialized")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("new hub has %d clients", hub.GetClientCount())
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	client := createTestClient(hub)
	hub.Register <- client
	waitForClients(t, hub, 1)

	hub.Unregister <- client
	waitForClients(t, hub, 0)

	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed after unregister")
	}

	// Unregistering an unknown client is harmless.
	hub.Unregister <- createTestClient(hub)
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastPointEvents(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	a, b := createTestClient(hub), createTestClient(hub)
	hub.Register <- a
	hub.Register <- b
	waitForClients(t, hub, 2)

	lat, lng := 19.4326, -99.1332
	p := &models.PointOfSale{ID: 3, Description: "Kiosk", Sale: 120, Zone: "Centro", Latitude: &lat, Longitude: &lng}

	tests := []struct {
		name     string
		send     func()
		wantType string
		wantID   int64
		hasPoint bool
	}{
		{"created", func() { hub.BroadcastPointCreated(p) }, MessageTypePointCreated, 3, true},
		{"updated", func() { hub.BroadcastPointUpdated(p) }, MessageTypePointUpdated, 3, true},
		{"deleted", func() { hub.BroadcastPointDeleted(9) }, MessageTypePointDeleted, 9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.send()
			for _, c := range []*Client{a, b} {
				msg := receive(t, c)
				if msg.Type != tt.wantType {
					t.Errorf("type = %q, want %q", msg.Type, tt.wantType)
				}
				ev, ok := msg.Data.(PointEvent)
				if !ok {
					t.Fatalf("data is %T, want PointEvent", msg.Data)
				}
				if ev.ID != tt.wantID {
					t.Errorf("id = %d, want %d", ev.ID, tt.wantID)
				}
				if (ev.Point != nil) != tt.hasPoint {
					t.Errorf("point present = %v, want %v", ev.Point != nil, tt.hasPoint)
				}
			}
		})
	}
}

func TestHub_BroadcastDropsFullClient(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	slow := &Client{id: nextClientID.Add(1), hub: hub, send: make(chan Message)}
	hub.Register <- slow
	waitForClients(t, hub, 1)

	hub.BroadcastPointDeleted(1)
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.BroadcastPointDeleted(int64(i))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastJSON blocked on a full queue")
	}
}

func TestHub_RunWithContext_ClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()

	client := createTestClient(hub)
	hub.Register <- client
	waitForClients(t, hub, 1)

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("clients after shutdown = %d", hub.GetClientCount())
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()

	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled: got %q", got)
	}
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline: got %q", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypePointDeleted, Data: PointEvent{ID: 4, Timestamp: "2026-01-01T00:00:00Z"}})
	if err != nil {
		t.Fatalf("MarshalMessage() error = %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"type":"point_deleted"`) || strings.Contains(s, `"point"`) {
		t.Errorf("unexpected JSON: %s", s)
	}

	var back struct {
		Type string `json:"type"`
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &back); err != nil || back.Data.ID != 4 {
		t.Errorf("round trip = %+v, %v", back, err)
	}
}
