// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package database

import (
	"errors"
	"io"
	"strings"
)

var (
	// ErrPointNotFound is returned when no point has the requested id.
	ErrPointNotFound = errors.New("point of sale not found")

	// ErrUserNotFound is returned when no account has the requested username.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
)

// isUniqueViolation reports whether err is a DuckDB constraint error on a
// primary key or unique column.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
