// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package logging provides the zerolog-based global logger used across PosMap.

# Quick Start

	logging.Init(logging.Config{Level: "info", Format: "json"})

	logging.Info().Str("addr", addr).Msg("Server listening")
	logging.Err(err).Msg("Query failed")
	logging.Ctx(ctx).Debug().Msg("Handling request")

Ctx attaches request_id and correlation_id from the context when present.
The HTTP middleware stores the request ID; background work uses
ContextWithNewCorrelationID.

# Components

Long-lived components take a child logger from WithComponent, for example
"session", "api" or "supervisor". SecurityLogger writes login, lockout and
registration events with usernames and tokens masked.

# slog Bridge

NewSlogLogger returns a *slog.Logger writing through zerolog, used for the
suture supervisor event hook.

Always terminate event chains with Msg or Send; an unterminated event is
never written.
*/
package logging
