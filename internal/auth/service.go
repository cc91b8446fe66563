// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/posmap/internal/config"
	"github.com/tomtom215/posmap/internal/database"
	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/metrics"
	"github.com/tomtom215/posmap/internal/models"
)

// Messages returned to clients in the Auth Gateway responses.
const (
	MsgMissingCredentials = "Username and password are required."
	MsgInvalidCredentials = "Invalid username or password."
	MsgPasswordTooShort   = "Password must be at least 8 characters."
	MsgUsernameTaken      = "Username is already registered."
	MsgAccountLocked      = "Too many failed attempts. Try again later."
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrAccountLocked      = errors.New("account temporarily locked due to too many failed attempts")
)

// LockedError carries the remaining lock time. It matches ErrAccountLocked.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s (retry after %s)", ErrAccountLocked, e.RetryAfter.Round(time.Second))
}

func (e *LockedError) Unwrap() error { return ErrAccountLocked }

// UserStore is the account persistence the service needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.AppUser, error)
	CreateUser(ctx context.Context, u models.AppUser) (*models.AppUser, error)
	SetPasswordHash(ctx context.Context, username, hash string) error
}

// Service implements login, registration and password changes.
type Service struct {
	users    UserStore
	tokens   *JWTManager
	lockout  *LockoutManager
	policy   config.PasswordPolicy
	security *logging.SecurityLogger

	dummyOnce sync.Once
	dummyHash string
}

// NewService wires the account store, token issuer and lockout manager.
// lockout may be nil to disable lockouts.
func NewService(users UserStore, tokens *JWTManager, lockout *LockoutManager) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		lockout:  lockout,
		policy:   config.UserPasswordPolicy(),
		security: logging.NewSecurityLogger(),
	}
}

// Tokens returns the JWT manager used to sign login tokens.
func (s *Service) Tokens() *JWTManager {
	return s.tokens
}

// Login verifies the credentials and returns the identity with a signed
// token. Errors: ErrMissingCredentials, ErrInvalidCredentials (unknown user,
// wrong password or inactive account) and *LockedError.
func (s *Service) Login(ctx context.Context, username, password, ip string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		metrics.RecordLogin("missing_credentials")
		return nil, ErrMissingCredentials
	}

	if err := s.checkLocked(ctx, username, ip); err != nil {
		return nil, err
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		// Spend the same bcrypt time as a real comparison.
		CheckPassword(s.comparisonHash(), password)
		return nil, s.failLogin(ctx, username, ip, "unknown user")
	case err != nil:
		metrics.RecordLogin("error")
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !CheckPassword(u.PasswordHash, password) {
		return nil, s.failLogin(ctx, username, ip, "wrong password")
	}
	if !u.Active {
		return nil, s.failLogin(ctx, username, ip, "inactive account")
	}

	if s.lockout != nil {
		if err := s.lockout.RecordSuccessfulLogin(ctx, username); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to clear lockout state")
		}
	}

	role := RoleUser
	if u.IsAdmin {
		role = RoleAdmin
	}
	token, err := s.tokens.GenerateToken(u.ID, u.Username, role)
	if err != nil {
		metrics.RecordLogin("error")
		return nil, err
	}

	identity := u.Identity()
	identity.Token = token
	metrics.RecordLogin("success")
	s.security.LogLoginSuccess(u.ID, u.Username, ip)
	return &identity, nil
}

func (s *Service) checkLocked(ctx context.Context, username, ip string) error {
	if s.lockout == nil {
		return nil
	}
	locked, remaining, err := s.lockout.CheckLocked(ctx, username)
	if err != nil {
		// A broken lockout store must not block logins.
		logging.Ctx(ctx).Error().Err(err).Msg("Error checking lockout")
		return nil
	}
	if locked {
		metrics.RecordLogin("locked")
		s.security.LogLoginFailure(username, ip, "account locked")
		return &LockedError{RetryAfter: remaining}
	}
	return nil
}

func (s *Service) failLogin(ctx context.Context, username, ip, reason string) error {
	metrics.RecordLogin("invalid_credentials")
	s.security.LogLoginFailure(username, ip, reason)

	if s.lockout == nil {
		return ErrInvalidCredentials
	}
	locked, remaining, err := s.lockout.RecordFailedAttempt(ctx, username, ip)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Error recording failed login")
		return ErrInvalidCredentials
	}
	if locked {
		metrics.RecordLockout()
		s.security.LogAccountLocked(username, ip, remaining)
	}
	return ErrInvalidCredentials
}

// comparisonHash is a valid hash that no password matches in practice.
func (s *Service) comparisonHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = HashPassword(logging.GenerateRequestID())
	})
	return s.dummyHash
}

// Register creates an active, non-admin account. Errors:
// ErrMissingCredentials, ErrPasswordTooShort and database.ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest, ip string) (*models.AppUser, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		metrics.RecordRegistration("invalid")
		return nil, ErrMissingCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		metrics.RecordRegistration("invalid")
		return nil, ErrPasswordTooShort
	}
	if err := s.policy.ValidateWithError(req.Password, username); err != nil {
		metrics.RecordRegistration("invalid")
		s.security.LogRegister(username, ip, false, "password policy")
		return nil, fmt.Errorf("%w: %w", ErrPasswordTooShort, err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		metrics.RecordRegistration("error")
		return nil, err
	}

	zone := strings.TrimSpace(req.Zone)
	if zone == "" {
		zone = models.DefaultUserZone
	}
	display := strings.TrimSpace(req.DisplayName)
	if display == "" {
		display = username
	}

	created, err := s.users.CreateUser(ctx, models.AppUser{
		Username:     username,
		DisplayName:  display,
		PasswordHash: hash,
		Zone:         zone,
		Active:       true,
	})
	if errors.Is(err, database.ErrUsernameTaken) {
		metrics.RecordRegistration("duplicate")
		s.security.LogRegister(username, ip, false, "username taken")
		return nil, err
	}
	if err != nil {
		metrics.RecordRegistration("error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.RecordRegistration("success")
	s.security.LogRegister(username, ip, true, "")
	return created, nil
}

// SetPassword replaces the password of username and reactivates the account.
// It returns database.ErrUserNotFound for unknown accounts.
func (s *Service) SetPassword(ctx context.Context, username, newPassword string) error {
	if err := s.policy.ValidateWithError(newPassword, username); err != nil {
		return fmt.Errorf("%w: %w", ErrPasswordTooShort, err)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordHash(ctx, username, hash); err != nil {
		return err
	}
	s.security.LogPasswordSet(username)
	return nil
}

// EnsureAdmin creates the configured admin account, or rotates its
// password when it already exists.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	err := s.SetPassword(ctx, username, password)
	if !errors.Is(err, database.ErrUserNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.users.CreateUser(ctx, models.AppUser{
		Username:     username,
		DisplayName:  username,
		PasswordHash: hash,
		Zone:         models.DefaultUserZone,
		Active:       true,
		IsAdmin:      true,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logging.Info().Str("username", username).Msg("Created admin account")
	return nil
}
