// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package models

import "time"

// DefaultUserZone is assigned to accounts registered without a zone.
const DefaultUserZone = "Naucalpan"

// User is the authenticated identity returned by a successful login.
//
// Token carries the bearer token issued by the server. It travels with the
// persisted session record so that a logout or expiry discards it as well.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Zone        string `json:"zone"`
	Token       string `json:"token,omitempty"`
}

// AppUser is a stored account row.
type AppUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Zone         string    `json:"zone"`
	Active       bool      `json:"active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity projects the stored account onto the public User shape.
func (u *AppUser) Identity() User {
	display := u.DisplayName
	if display == "" {
		display = u.Username
	}
	zone := u.Zone
	if zone == "" {
		zone = DefaultUserZone
	}
	return User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: display,
		Zone:        zone,
	}
}

// LoginRequest is the Auth Gateway login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the Auth Gateway register payload.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=80"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name" validate:"max=120"`
	Zone        string `json:"zone" validate:"max=100"`
}

// LoginResponse is the Auth Gateway login result.
// Success=false always carries Message; Success=true always carries User.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
}

// AuthResponse is the Auth Gateway register result.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
