// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/posmap/internal/config"
	"github.com/tomtom215/posmap/internal/models"
	ws "github.com/tomtom215/posmap/internal/websocket"
)

// startLiveServer serves ts over a real listener with the hub running.
func startLiveServer(t *testing.T, ts *testServer) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ts.hub.RunWithContext(ctx)
	}()

	srv := httptest.NewServer(ts.http)
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return srv
}

func dialFeed(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, resp, err
}

func waitForSubscribers(t *testing.T, hub *ws.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", hub.GetClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocket_ReceivesPointEvents(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, config.AuthModeNone)
	srv := startLiveServer(t, ts)

	conn, _, err := dialFeed(t, srv, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForSubscribers(t, ts.hub, 1)

	body, _ := json.Marshal(models.PointInput{Description: "Papeleria", Sale: 75, Zone: "Centro"})
	resp, err := http.Post(srv.URL+"/api/v1/points", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type string        `json:"type"`
		Data ws.PointEvent `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	if msg.Type != ws.MessageTypePointCreated {
		t.Errorf("type = %q, want %q", msg.Type, ws.MessageTypePointCreated)
	}
	if msg.Data.Point == nil || msg.Data.Point.Description != "Papeleria" || msg.Data.ID != msg.Data.Point.ID {
		t.Errorf("event = %+v", msg.Data)
	}
}

func TestWebSocket_OriginCheck(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, config.AuthModeNone)
	ts.handler.config.Security.CORSOrigins = []string{"https://dashboard.example"}
	srv := startLiveServer(t, ts)

	tests := []struct {
		name   string
		origin string
		wantOK bool
	}{
		{"no origin", "", true},
		{"same host", srv.URL, true},
		{"configured origin", "https://dashboard.example", true},
		{"foreign origin", "https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := dialFeed(t, srv, header)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("dial: %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("foreign origin was accepted")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("response = %v, want 403", resp)
			}
		})
	}
}

func TestWebSocket_NoHub(t *testing.T) {
	t.Parallel()
	h := NewHandler(newFakeStore(), nil, testConfig(config.AuthModeNone), nil)
	t.Cleanup(h.Close)

	w := httptest.NewRecorder()
	NewRouter(h).Setup().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
