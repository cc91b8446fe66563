// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/tomtom215/posmap/internal/auth"
	"github.com/tomtom215/posmap/internal/config"
	"github.com/tomtom215/posmap/internal/logging"
)

// ephemeralSecretBytes yields a 43 character base64 secret.
const ephemeralSecretBytes = 32

// ensureJWTSecret fills an empty secret with a random one. Validation has
// already rejected an empty secret in production.
func ensureJWTSecret(sec *config.SecurityConfig) error {
	if sec.JWTSecret != "" {
		return nil
	}
	buf := make([]byte, ephemeralSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate JWT secret: %w", err)
	}
	sec.JWTSecret = base64.RawStdEncoding.EncodeToString(buf)
	logging.Warn().Msg("JWT_SECRET not set; using a per-process secret. Tokens will not survive a restart.")
	return nil
}

// newLockoutStore opens the configured lockout backend. The returned
// closer is never nil.
func newLockoutStore(sec *config.SecurityConfig) (auth.LockoutStore, io.Closer, error) {
	switch sec.LockoutStore {
	case config.LockoutStoreBadger:
		store, err := auth.OpenBadgerLockoutStore(sec.LockoutPath)
		if err != nil {
			return nil, nil, err
		}
		logging.Info().Str("path", sec.LockoutPath).Msg("Account lockouts persisted in BadgerDB")
		return store, store, nil
	default:
		if sec.AuthEnabled() {
			logging.Info().Msg("Account lockouts kept in memory (LOCKOUT_STORE=memory); they reset on restart")
		}
		return auth.NewMemoryLockoutStore(), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ensureAdmin creates or rotates the configured admin account.
func ensureAdmin(ctx context.Context, svc *auth.Service, sec *config.SecurityConfig) error {
	if sec.AdminUsername == "" {
		return nil
	}
	if err := svc.EnsureAdmin(ctx, sec.AdminUsername, sec.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin %q: %w", sec.AdminUsername, err)
	}
	return nil
}
