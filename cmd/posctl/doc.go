// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Command posctl is the operator client for a PosMap server.

The session lives in a BadgerDB directory (--state, default
$HOME/.posmap/session) and is shared by every invocation. The stored user
carries the bearer token issued at login. A session expires after 60 minutes
without activity; any successful command that needs a session counts as
activity. Long-running commands (watch, tui) hold the state directory open,
so other invocations fail until they exit.

Usage:

	posctl login ana                  # password from POSMAP_PASSWORD or a prompt
	posctl whoami
	posctl points list --page 2 --size 100
	posctl points create --desc "Abarrotes Lupita" --sale 120.5 --zone Centro --lat 19.43 --lng -99.13
	posctl points update 12 --sale 80
	posctl zones
	posctl dashboard --tz America/Mexico_City
	posctl report -q lupita --csv report.csv
	posctl watch
	posctl tui
	posctl logout

Environment:

  - POSMAP_SERVER: server URL (default http://localhost:8080)
  - POSMAP_STATE: session state directory
  - POSMAP_PASSWORD: password for login and register
  - POSMAP_TZ: timezone that defines "today" for dashboard and tui
  - POSMAP_LOG_LEVEL: log level (default warn)
*/
package main
