// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinUserPasswordLength is the shortest password accepted at registration.
const MinUserPasswordLength = 8

// PasswordPolicy defines requirements for password strength.
type PasswordPolicy struct {
	// MinLength is counted in runes.
	MinLength int

	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool

	// ForbidUsernameSimilarity rejects passwords containing the username.
	ForbidUsernameSimilarity bool
}

// UserPasswordPolicy is the rule applied to self-registered accounts.
func UserPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: MinUserPasswordLength}
}

// AdminPasswordPolicy is the stricter rule for the bootstrap admin account
// in production.
func AdminPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:                12,
		RequireUppercase:         true,
		RequireLowercase:         true,
		RequireDigit:             true,
		ForbidUsernameSimilarity: true,
	}
}

// Validate returns every rule password breaks. An empty result means the
// password is acceptable.
func (p PasswordPolicy) Validate(password, username string) []string {
	var problems []string

	if n := utf8.RuneCountInString(password); n < p.MinLength {
		problems = append(problems,
			fmt.Sprintf("password must be at least %d characters (got %d)", p.MinLength, n))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if p.RequireUppercase && !hasUpper {
		problems = append(problems, "password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		problems = append(problems, "password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		problems = append(problems, "password must contain at least one digit")
	}

	if p.ForbidUsernameSimilarity && username != "" &&
		strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		problems = append(problems, "password is too similar to username")
	}

	return problems
}

// ValidateWithError is a convenience method that returns an error if validation fails.
func (p PasswordPolicy) ValidateWithError(password, username string) error {
	if problems := p.Validate(password, username); len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
