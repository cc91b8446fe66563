// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// feedServer upgrades every request and hands the connection to handler.
func feedServer(t *testing.T, handler func(t *testing.T, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handler(t, conn)
	}))
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	return conn
}

func awaitSignal(t *testing.T, ch <-chan bool, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Errorf("%s: timeout after %v", msg, timeout)
	}
}

func TestNewClient(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil)
	b := NewClient(hub, nil)

	if a.ID() >= b.ID() {
		t.Errorf("client IDs not increasing: %d then %d", a.ID(), b.ID())
	}
	if cap(a.send) != 256 {
		t.Errorf("Expected send channel capacity 256, got %d", cap(a.send))
	}
}

func TestClient_WriteLoop_SendsMessage(t *testing.T) {
	hub := NewHub()

	messageReceived := make(chan bool, 1)
	server := feedServer(t, func(t *testing.T, conn *websocket.Conn) {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("Failed to read message: %v", err)
			return
		}
		if msg.Type != MessageTypePointDeleted {
			t.Errorf("Expected message type %q, got %q", MessageTypePointDeleted, msg.Type)
		}
		messageReceived <- true
	})
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	go client.writeLoop()

	client.send <- Message{Type: MessageTypePointDeleted, Data: newPointEvent(7, nil)}

	awaitSignal(t, messageReceived, time.Second, "Message not received")
}

func TestClient_ReadLoop_AnswersPing(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	receivedPong := make(chan bool, 1)
	server := feedServer(t, func(t *testing.T, conn *websocket.Conn) {
		if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
			t.Errorf("Failed to write ping: %v", err)
			return
		}

		var pongMsg Message
		if err := conn.ReadJSON(&pongMsg); err != nil {
			t.Errorf("Failed to read pong: %v", err)
			return
		}
		if pongMsg.Type == MessageTypePong {
			receivedPong <- true
		}
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	client.Start()

	awaitSignal(t, receivedPong, time.Second, "Pong not received")
}

func TestClient_ReadLoop_UnregistersOnClose(t *testing.T) {
	hub := NewHub()

	unregistered := make(chan bool, 1)
	go func() {
		select {
		case <-hub.Unregister:
			unregistered <- true
		case <-time.After(2 * time.Second):
		}
	}()

	server := feedServer(t, func(t *testing.T, conn *websocket.Conn) {
		conn.Close()
	})
	defer server.Close()

	conn := dial(t, server)
	client := NewClient(hub, conn)
	go client.readLoop()

	awaitSignal(t, unregistered, time.Second, "Client not unregistered after connection close")
}
