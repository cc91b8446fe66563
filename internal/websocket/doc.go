// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package websocket broadcasts point-of-sale change events to connected
subscribers.

The Hub owns the client set and runs under the supervisor through
RunWithContext. Handlers call BroadcastPointCreated, BroadcastPointUpdated and
BroadcastPointDeleted after a successful mutation; the calls never block and
drop the message when the broadcast queue is full.

# Message Format

	{"type": "point_updated", "data": {"id": 12, "point": {...}, "timestamp": "2026-05-01T10:00:00Z"}}

Clients may send {"type": "ping"} and receive {"type": "pong"}. The server
also sends WebSocket ping frames every 54 seconds and drops connections that
miss the 60 second pong deadline.

# Ordering

Broadcast visits clients in connection order. A client whose 256-message
buffer is full is disconnected rather than allowed to stall the others.
*/
package websocket
