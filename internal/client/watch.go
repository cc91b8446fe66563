// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/posmap/internal/models"
)

// ChangeEvent is one point change received from the server feed.
type ChangeEvent struct {
	Type      string
	ID        int64
	Point     *models.PointOfSale
	Timestamp time.Time
}

type wireMessage struct {
	Type string `json:"type"`
	Data struct {
		ID        int64                      `json:"id"`
		Point     map[string]json.RawMessage `json:"point"`
		Timestamp string                     `json:"timestamp"`
	} `json:"data"`
}

// Watch streams point change events to fn until ctx is done or the
// connection drops. It returns nil when ctx ends the stream.
func (c *Client) Watch(ctx context.Context, fn func(ChangeEvent)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/v1/ws"
	header := http.Header{}
	if tok := c.token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial change feed: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read change feed: %w", err)
		}
		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if !strings.HasPrefix(msg.Type, "point_") {
			continue
		}

		ev := ChangeEvent{Type: msg.Type, ID: msg.Data.ID}
		if ts, err := time.Parse(time.RFC3339, msg.Data.Timestamp); err == nil {
			ev.Timestamp = ts
		}
		if msg.Data.Point != nil {
			if p, err := NormalizePoint(msg.Data.Point); err == nil {
				ev.Point = &p
			}
		}
		fn(ev)
	}
}
