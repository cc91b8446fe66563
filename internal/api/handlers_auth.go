// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/posmap/internal/auth"
	"github.com/tomtom215/posmap/internal/database"
	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/models"
	"github.com/tomtom215/posmap/internal/validation"
)

const (
	msgInvalidBody  = "Invalid request body."
	msgAuthFailure  = "Authentication is temporarily unavailable."
	msgRegisterFail = "Registration failed. Try again later."
)

// The Auth Gateway answers with flat {success, message, ...} bodies rather
// than the data envelope.
func authFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.AuthResponse{Success: false, Message: message})
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		authFailure(w, http.StatusServiceUnavailable, msgAuthFailure)
		return
	}

	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		authFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.auth.Login(r.Context(), req.Username, req.Password, clientIP(r))
	var locked *auth.LockedError
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMissingCredentials):
		authFailure(w, http.StatusBadRequest, auth.MsgMissingCredentials)
		return
	case errors.As(err, &locked):
		w.Header().Set("Retry-After", retryAfterSeconds(locked.RetryAfter))
		authFailure(w, http.StatusTooManyRequests, auth.MsgAccountLocked)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		authFailure(w, http.StatusUnauthorized, auth.MsgInvalidCredentials)
		return
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Login failed")
		authFailure(w, http.StatusInternalServerError, msgAuthFailure)
		return
	}

	token := user.Token
	user.Token = ""
	h.setAuthCookie(w, r, token)
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Success: true,
		User:    user,
		Token:   token,
	})
}

// setAuthCookie mirrors the bearer token into an HTTP-only cookie for
// browser clients.
func (h *Handler) setAuthCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  h.now().Add(h.auth.Tokens().Timeout()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		authFailure(w, http.StatusServiceUnavailable, msgAuthFailure)
		return
	}

	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		authFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		authFailure(w, http.StatusBadRequest, auth.MsgMissingCredentials)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		authFailure(w, http.StatusBadRequest, verr.Error())
		return
	}

	_, err := h.auth.Register(r.Context(), req, clientIP(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, models.AuthResponse{Success: true})
	case errors.Is(err, auth.ErrMissingCredentials):
		authFailure(w, http.StatusBadRequest, auth.MsgMissingCredentials)
	case errors.Is(err, auth.ErrPasswordTooShort):
		authFailure(w, http.StatusBadRequest, auth.MsgPasswordTooShort)
	case errors.Is(err, database.ErrUsernameTaken):
		authFailure(w, http.StatusConflict, auth.MsgUsernameTaken)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Registration failed")
		authFailure(w, http.StatusInternalServerError, msgRegisterFail)
	}
}
