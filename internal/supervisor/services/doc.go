// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package services adapts PosMap components to suture.Service.

  - HTTPServerService: ListenAndServe with graceful Shutdown on cancel
  - WebSocketHubService: runs the point change hub
  - CheckpointService: periodic DuckDB CHECKPOINT, plus one on shutdown

The account lockout manager already implements suture.Service and is
added to the tree directly.

Every wrapper implements fmt.Stringer so supervisor events name the
service.
*/
package services
