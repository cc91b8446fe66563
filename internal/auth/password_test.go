// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package auth

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the password")
	}

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{"matching password", hash, "correct horse", true},
		{"wrong password", hash, "correct horsE", false},
		{"empty password", hash, "", false},
		{"empty hash", "", "correct horse", false},
		{"malformed hash", "not-a-bcrypt-hash", "correct horse", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.hash, tt.password); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("x", 100)); err == nil {
		t.Error("expected error for password over 72 bytes")
	}
}
