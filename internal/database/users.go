// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/posmap/internal/models"
)

const usersTable = "app_users"

const userColumns = `id, username, display_name, password_hash, zone, active, is_admin, created_at`

func scanUser(row rowScanner) (models.AppUser, error) {
	var u models.AppUser
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Zone, &u.Active, &u.IsAdmin, &u.CreatedAt)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, err
}

// GetUserByUsername returns the account or ErrUserNotFound.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (u *models.AppUser, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("select", usersTable, time.Now(), &err)

	user, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM app_users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts u and returns it with its id and creation time set.
// A duplicate username yields ErrUsernameTaken.
func (db *DB) CreateUser(ctx context.Context, u models.AppUser) (created *models.AppUser, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("insert", usersTable, time.Now(), &err)

	u.CreatedAt = db.now()
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO app_users (username, display_name, password_hash, zone, active, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		u.Username, u.DisplayName, u.PasswordHash, u.Zone, u.Active, u.IsAdmin, u.CreatedAt,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// SetPasswordHash replaces the stored hash and reactivates the account.
// It returns ErrUserNotFound when no account matches.
func (db *DB) SetPasswordHash(ctx context.Context, username, hash string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", usersTable, time.Now(), &err)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE app_users SET password_hash = ?, active = true WHERE username = ?`, hash, username)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetUserActive enables or disables an account. Inactive accounts cannot
// log in.
func (db *DB) SetUserActive(ctx context.Context, username string, active bool) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer observe("update", usersTable, time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `UPDATE app_users SET active = ? WHERE username = ?`, active, username)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
