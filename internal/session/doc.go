// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package session implements the client-side session lifecycle: login and
logout through an AuthGateway, an inactivity timeout, and reconciliation
between several manager instances sharing one persisted Storage.

# State

A session is two string entries in Storage:

  - UserKey ("currentUser"): the JSON encoded models.User, including the
    bearer token issued at login
  - LastActivityKey ("lastActivityTimestamp"): Unix milliseconds of the last
    recorded activity

Only Manager writes these entries. An undecodable user record, or a storage
read error, is treated as "no session" and cleared.

# Timing

InactivityTimeout (60 minutes) and ActivityThrottle (15 seconds) are fixed.
The remaining time is always derived from the persisted timestamp, never from
an in-memory countdown, so an instance that was suspended and resumes late
expires correctly. At most one expiry callback is pending per Manager; every
rearm cancels the previous one through the Scheduler.

# Instances

Every Manager subscribes to Storage change notifications. A change to
UserKey re-reads the user; a change to LastActivityKey rearms the timer from
the new timestamp. Activity in one instance therefore keeps all instances
alive, and a logout in one logs out all of them. A Manager never writes
storage in reaction to a notification.

# Backends

MemoryStorage shares state between views in one process, the way browser tabs
share localStorage. BadgerStorage persists the entries on disk so that
successive posctl invocations see one session. Within a process, several
BadgerStorage values may share one *badger.DB through NewBadgerStorage.

# Concurrency

Manager serializes every entry point (API calls, timer fires and storage
notifications) behind one mutex. Callbacks registered with SetOnLogout run
after the mutex is released.
*/
package session
