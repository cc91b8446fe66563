// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package session

import (
	"context"
	"errors"

	"github.com/tomtom215/posmap/internal/models"
)

// ErrGateway marks a network or unexpected Auth Gateway failure. It is
// distinct from a rejected credential, which is a Result with OK=false.
var ErrGateway = errors.New("auth gateway unavailable")

// Default messages used when the gateway omits one.
const (
	MsgInvalidCredentials = "Invalid username or password."
	MsgRegisterFailed     = "Registration failed."
)

// AuthGateway performs the remote login and register calls.
//
// Implementations return a non-nil error only for transport or unexpected
// failures. A credential rejection is a response with Success=false.
type AuthGateway interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
}

// Result is the outcome of Login or Register.
type Result struct {
	OK      bool
	Message string
}
