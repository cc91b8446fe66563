// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/posmap/internal/logging"
)

// entryRetention is how long an unlocked entry survives after its last
// failed attempt before the janitor removes it.
const entryRetention = 24 * time.Hour

// ErrLockoutNotFound is returned when a lockout entry doesn't exist.
var ErrLockoutNotFound = errors.New("lockout entry not found")

// LockoutConfig holds configuration for the account lockout system.
type LockoutConfig struct {
	// MaxAttempts is the number of failed attempts before lockout.
	MaxAttempts int `json:"max_attempts"`

	// LockoutDuration is the base lockout period.
	LockoutDuration time.Duration `json:"lockout_duration"`

	// EnableExponentialBackoff doubles the period on each subsequent lockout.
	EnableExponentialBackoff bool `json:"enable_exponential_backoff"`

	// MaxLockoutDuration caps the backoff.
	MaxLockoutDuration time.Duration `json:"max_lockout_duration"`

	// CleanupInterval is how often the janitor runs.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	Enabled bool `json:"enabled"`
}

// DefaultLockoutConfig returns 5 attempts, 15 minutes, doubling up to 24h.
func DefaultLockoutConfig() *LockoutConfig {
	return &LockoutConfig{
		MaxAttempts:              5,
		LockoutDuration:          15 * time.Minute,
		EnableExponentialBackoff: true,
		MaxLockoutDuration:       24 * time.Hour,
		CleanupInterval:          5 * time.Minute,
		Enabled:                  true,
	}
}

// LockoutEntry tracks failed login attempts for one username.
type LockoutEntry struct {
	Username       string    `json:"username"`
	FailedAttempts int       `json:"failed_attempts"`
	LastAttempt    time.Time `json:"last_attempt"`
	LockoutCount   int       `json:"lockout_count"` // drives the exponential backoff
	LockedUntil    time.Time `json:"locked_until"`
	LastFailedIP   string    `json:"last_failed_ip,omitempty"`
}

// IsLockedAt reports whether the entry is locked at now.
func (e *LockoutEntry) IsLockedAt(now time.Time) bool {
	return now.Before(e.LockedUntil)
}

// expiredAt reports whether the janitor may drop the entry.
func (e *LockoutEntry) expiredAt(now time.Time) bool {
	return !e.IsLockedAt(now) && e.LastAttempt.Before(now.Add(-entryRetention))
}

// LockoutStore persists lockout state.
type LockoutStore interface {
	GetEntry(ctx context.Context, username string) (*LockoutEntry, error)
	SaveEntry(ctx context.Context, entry *LockoutEntry) error
	DeleteEntry(ctx context.Context, username string) error

	// ListLockedEntries returns the entries locked at now.
	ListLockedEntries(ctx context.Context, now time.Time) ([]*LockoutEntry, error)

	// CleanupExpired removes entries that are unlocked and older than the
	// retention window, returning how many were removed.
	CleanupExpired(ctx context.Context, now time.Time) (int, error)
}

// LockoutManager handles account lockout logic.
type LockoutManager struct {
	config LockoutConfig
	store  LockoutStore
	now    func() time.Time

	// serializes read-modify-write of entries
	mu sync.Mutex
}

// NewLockoutManager creates a new lockout manager. A nil config selects
// DefaultLockoutConfig.
func NewLockoutManager(store LockoutStore, config *LockoutConfig) *LockoutManager {
	if config == nil {
		config = DefaultLockoutConfig()
	}
	return &LockoutManager{
		config: *config,
		store:  store,
		now:    time.Now,
	}
}

// Config returns the active configuration.
func (m *LockoutManager) Config() LockoutConfig {
	return m.config
}

// CheckLocked reports whether username is locked and for how much longer.
func (m *LockoutManager) CheckLocked(ctx context.Context, username string) (bool, time.Duration, error) {
	if !m.config.Enabled {
		return false, 0, nil
	}

	entry, err := m.store.GetEntry(ctx, username)
	if errors.Is(err, ErrLockoutNotFound) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("check lockout: %w", err)
	}

	now := m.now()
	if !entry.IsLockedAt(now) {
		return false, 0, nil
	}
	return true, entry.LockedUntil.Sub(now), nil
}

// RecordFailedAttempt counts a failed login. When the attempt reaches the
// threshold the account is locked and the lock duration is returned.
func (m *LockoutManager) RecordFailedAttempt(ctx context.Context, username, ip string) (locked bool, remaining time.Duration, err error) {
	if !m.config.Enabled {
		return false, 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, err := m.store.GetEntry(ctx, username)
	if errors.Is(err, ErrLockoutNotFound) {
		entry, err = &LockoutEntry{Username: username}, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("get entry: %w", err)
	}

	now := m.now()
	if entry.IsLockedAt(now) {
		return true, entry.LockedUntil.Sub(now), nil
	}

	entry.FailedAttempts++
	entry.LastAttempt = now
	entry.LastFailedIP = ip

	if entry.FailedAttempts >= m.config.MaxAttempts {
		remaining = m.lock(entry, now)
		locked = true
	}

	if err := m.store.SaveEntry(ctx, entry); err != nil {
		return false, 0, fmt.Errorf("save entry: %w", err)
	}
	return locked, remaining, nil
}

func (m *LockoutManager) lock(entry *LockoutEntry, now time.Time) time.Duration {
	d := lockoutDuration(&m.config, entry.LockoutCount)
	entry.LockedUntil = now.Add(d)
	entry.LockoutCount++
	entry.FailedAttempts = 0

	logging.Warn().
		Str("username", logging.SanitizeUsername(entry.Username)).
		Dur("duration", d).
		Int("lockout_count", entry.LockoutCount).
		Msg("Account locked")
	return d
}

// lockoutDuration doubles the base period for every previous lockout.
func lockoutDuration(config *LockoutConfig, lockoutCount int) time.Duration {
	d := config.LockoutDuration
	if !config.EnableExponentialBackoff || lockoutCount == 0 {
		return d
	}
	for i := 0; i < lockoutCount; i++ {
		d *= 2
		if config.MaxLockoutDuration > 0 && d >= config.MaxLockoutDuration {
			return config.MaxLockoutDuration
		}
	}
	return d
}

// RecordSuccessfulLogin clears the failure history for username.
func (m *LockoutManager) RecordSuccessfulLogin(ctx context.Context, username string) error {
	if !m.config.Enabled {
		return nil
	}
	return m.ClearLockout(ctx, username)
}

// ClearLockout removes any lockout state for username.
func (m *LockoutManager) ClearLockout(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteEntry(ctx, username); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

// GetLockedAccounts returns the entries that are currently locked.
func (m *LockoutManager) GetLockedAccounts(ctx context.Context) ([]*LockoutEntry, error) {
	entries, err := m.store.ListLockedEntries(ctx, m.now())
	if err != nil {
		return nil, fmt.Errorf("list locked: %w", err)
	}
	return entries, nil
}

// Cleanup drops expired entries once.
func (m *LockoutManager) Cleanup(ctx context.Context) (int, error) {
	count, err := m.store.CleanupExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup lockouts: %w", err)
	}
	if count > 0 {
		logging.Info().Int("count", count).Msg("Cleaned up expired lockout entries")
	}
	return count, nil
}

// Serve runs Cleanup every CleanupInterval until ctx is canceled. It
// satisfies suture.Service.
func (m *LockoutManager) Serve(ctx context.Context) error {
	interval := m.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Cleanup(ctx); err != nil {
				logging.Error().Err(err).Msg("Lockout cleanup error")
			}
		}
	}
}

// String names the service in supervisor logs.
func (m *LockoutManager) String() string {
	return "lockout-janitor"
}

// MemoryLockoutStore implements LockoutStore in process memory.
type MemoryLockoutStore struct {
	entries map[string]*LockoutEntry
	mu      sync.RWMutex
}

// NewMemoryLockoutStore creates a new in-memory lockout store.
func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{
		entries: make(map[string]*LockoutEntry),
	}
}

// GetEntry retrieves a lockout entry.
func (s *MemoryLockoutStore) GetEntry(_ context.Context, username string) (*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[username]
	if !ok {
		return nil, ErrLockoutNotFound
	}
	return copyEntry(entry), nil
}

// SaveEntry persists a lockout entry.
func (s *MemoryLockoutStore) SaveEntry(_ context.Context, entry *LockoutEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Username] = copyEntry(entry)
	return nil
}

// DeleteEntry removes a lockout entry.
func (s *MemoryLockoutStore) DeleteEntry(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[username]; !ok {
		return ErrLockoutNotFound
	}
	delete(s.entries, username)
	return nil
}

// ListLockedEntries returns the entries locked at now.
func (s *MemoryLockoutStore) ListLockedEntries(_ context.Context, now time.Time) ([]*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var locked []*LockoutEntry
	for _, entry := range s.entries {
		if entry.IsLockedAt(now) {
			locked = append(locked, copyEntry(entry))
		}
	}
	return locked, nil
}

// CleanupExpired removes expired entries.
func (s *MemoryLockoutStore) CleanupExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for username, entry := range s.entries {
		if entry.expiredAt(now) {
			delete(s.entries, username)
			count++
		}
	}
	return count, nil
}

func copyEntry(entry *LockoutEntry) *LockoutEntry {
	copied := *entry
	return &copied
}
