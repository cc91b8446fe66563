// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package logging

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// SecurityEvent is an authentication-relevant event.
type SecurityEvent struct {
	Event     string
	UserID    int64
	Username  string
	IPAddress string
	Success   bool
	Reason    string
	Details   map[string]string
}

// SecurityLogger writes authentication events with sensitive values masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on top of the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("auth")}
}

// NewSecurityLoggerWithLogger creates a security logger writing to logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// LogEvent writes event. Failed events are logged at warn level.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	if !event.Success {
		e = l.logger.Warn()
	}
	e = e.Str("event", event.Event).Bool("success", event.Success)
	if event.UserID != 0 {
		e = e.Int64("user_id", event.UserID)
	}
	if event.Username != "" {
		e = e.Str("username", SanitizeUsername(event.Username))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.Reason != "" {
		e = e.Str("reason", event.Reason)
	}
	for k, v := range event.Details {
		e = e.Str(k, v)
	}
	e.Msg("security event")
}

// LogLoginSuccess logs a successful login.
func (l *SecurityLogger) LogLoginSuccess(userID int64, username, ip string) {
	l.LogEvent(&SecurityEvent{Event: "login_success", UserID: userID, Username: username, IPAddress: ip, Success: true})
}

// LogLoginFailure logs a rejected login.
func (l *SecurityLogger) LogLoginFailure(username, ip, reason string) {
	l.LogEvent(&SecurityEvent{Event: "login_failed", Username: username, IPAddress: ip, Reason: reason})
}

// LogAccountLocked logs a login refused by the lockout policy.
func (l *SecurityLogger) LogAccountLocked(username, ip string, retryAfter time.Duration) {
	l.LogEvent(&SecurityEvent{
		Event:     "account_locked",
		Username:  username,
		IPAddress: ip,
		Reason:    "too many failed attempts",
		Details:   map[string]string{"retry_after_s": strconv.Itoa(int(retryAfter.Seconds()))},
	})
}

// LogRegister logs an account registration attempt.
func (l *SecurityLogger) LogRegister(username, ip string, success bool, reason string) {
	l.LogEvent(&SecurityEvent{Event: "register", Username: username, IPAddress: ip, Success: success, Reason: reason})
}

// LogPasswordSet logs an administrative password change.
func (l *SecurityLogger) LogPasswordSet(username string) {
	l.LogEvent(&SecurityEvent{Event: "password_set", Username: username, Success: true})
}

// SanitizeToken masks a token, keeping the first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUsername keeps the first 2 characters of a username.
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}
