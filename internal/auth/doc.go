// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

/*
Package auth implements the server side of the Auth Gateway: password
hashing, login and registration, JWT issuance, request authentication and
account lockout.

Key Components:

  - Service: Login, Register, SetPassword and EnsureAdmin over a UserStore
  - JWTManager: HS256 tokens carrying the user id, username and role
  - Middleware: Bearer token authentication for chi routes
  - LockoutManager: failed attempt tracking keyed by username, with
    MemoryLockoutStore and BadgerLockoutStore backends

Login Flow:

	user, err := svc.Login(ctx, username, password, clientIP)
	var locked *auth.LockedError
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):   // 400
	case errors.As(err, &locked):                      // 429, Retry-After
	case errors.Is(err, auth.ErrInvalidCredentials):   // 401
	case err != nil:                                   // 500
	}

An inactive account fails exactly like a wrong password so that responses
never reveal which accounts exist. Unknown usernames also pay for a bcrypt
comparison.

Lockout:

After MaxAttempts consecutive failures (default 5) the username is locked
for LockoutDuration (default 15 minutes). Each further lockout doubles the
period up to MaxLockoutDuration. LockoutManager implements suture.Service;
its Serve loop drops stale entries.
*/
package auth
