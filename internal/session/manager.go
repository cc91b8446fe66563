// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/models"
)

// Fixed session timing.
const (
	InactivityTimeout = 60 * time.Minute
	ActivityThrottle  = 15 * time.Second
)

// Reason explains why a session ended.
type Reason string

const (
	// ReasonLogout is an explicit Logout call.
	ReasonLogout Reason = "logout"
	// ReasonExpired is the inactivity timeout.
	ReasonExpired Reason = "expired"
	// ReasonRemote is a logout or expiry observed through storage.
	ReasonRemote Reason = "remote"
	// ReasonCorrupt is an unreadable persisted session.
	ReasonCorrupt Reason = "corrupt"
)

// Options configures a Manager. Zero fields use the real clock, a
// time.AfterFunc scheduler and the session component logger.
type Options struct {
	Clock     Clock
	Scheduler Scheduler
	Logger    *zerolog.Logger
}

// Manager owns the authenticated-user state of one client instance.
type Manager struct {
	mu sync.Mutex

	storage Storage
	gateway AuthGateway
	clock   Clock
	sched   Scheduler
	logger  zerolog.Logger

	user         *models.User
	lastActivity time.Time
	lastWrite    time.Time

	cancelTimer func()
	timerGen    uint64

	unsubscribe func()
	onLogout    func(Reason)
	closed      bool
}

// NewManager creates a Manager and bootstraps it from storage: an expired
// persisted session is cleared immediately, a live one is restored and its
// timer armed with the remaining time.
func NewManager(storage Storage, gateway AuthGateway, opts Options) *Manager {
	m := &Manager{
		storage: storage,
		gateway: gateway,
		clock:   opts.Clock,
		sched:   opts.Scheduler,
	}
	if m.clock == nil {
		m.clock = SystemClock{}
	}
	if m.sched == nil {
		m.sched = TimerScheduler{}
	}
	if opts.Logger != nil {
		m.logger = *opts.Logger
	} else {
		m.logger = logging.WithComponent("session")
	}

	m.mu.Lock()
	m.bootstrapLocked()
	m.mu.Unlock()

	m.unsubscribe = storage.Subscribe(m.handleChange)
	return m
}

func (m *Manager) bootstrapLocked() {
	user, err := m.readUser()
	if err != nil {
		m.logger.Warn().Err(err).Msg("Discarding unreadable session")
		m.clearLocked(true)
		return
	}
	if user == nil {
		return
	}

	now := m.clock.Now()
	last, ok := m.readLastActivity()
	if ok && now.Sub(last) > InactivityTimeout {
		m.logger.Info().Str("username", logging.SanitizeUsername(user.Username)).
			Time("last_activity", last).Msg("Persisted session already expired")
		m.clearLocked(true)
		return
	}
	if !ok {
		last = now
	}

	m.user = user
	m.lastActivity = last
	m.scheduleLocked()
	m.logger.Debug().Str("username", logging.SanitizeUsername(user.Username)).
		Dur("remaining", m.remainingLocked()).Msg("Session restored")
}

// SetOnLogout registers fn to run whenever the session ends. fn runs
// without the manager lock held and may call back into the Manager.
func (m *Manager) SetOnLogout(fn func(Reason)) {
	m.mu.Lock()
	m.onLogout = fn
	m.mu.Unlock()
}

// Login checks credentials through the gateway. On success it persists the
// user and force-records activity. A rejection returns OK=false and leaves
// the state untouched; only gateway failures return an error wrapping
// ErrGateway.
func (m *Manager) Login(ctx context.Context, username, password string) (Result, error) {
	resp, err := m.gateway.Login(ctx, models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	if resp == nil {
		return Result{}, fmt.Errorf("%w: empty login response", ErrGateway)
	}
	if !resp.Success {
		msg := resp.Message
		if strings.TrimSpace(msg) == "" {
			msg = MsgInvalidCredentials
		}
		return Result{OK: false, Message: msg}, nil
	}
	if resp.User == nil {
		return Result{}, fmt.Errorf("%w: login response without user", ErrGateway)
	}

	user := *resp.User
	if resp.Token != "" {
		user.Token = resp.Token
	}
	data, err := json.Marshal(&user)
	if err != nil {
		return Result{}, fmt.Errorf("encode user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.storage.Set(UserKey, string(data)); err != nil {
		return Result{}, fmt.Errorf("persist user: %w", err)
	}
	m.user = &user
	m.recordActivityLocked(true)

	m.logger.Info().Int64("user_id", user.ID).
		Str("username", logging.SanitizeUsername(user.Username)).Msg("Logged in")
	return Result{OK: true}, nil
}

// Register delegates to the gateway and never touches the session.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (Result, error) {
	resp, err := m.gateway.Register(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	if resp == nil {
		return Result{}, fmt.Errorf("%w: empty register response", ErrGateway)
	}
	if !resp.Success {
		msg := resp.Message
		if strings.TrimSpace(msg) == "" {
			msg = MsgRegisterFailed
		}
		return Result{OK: false, Message: msg}, nil
	}
	return Result{OK: true, Message: resp.Message}, nil
}

// Logout clears the session and cancels the timer. It is idempotent.
func (m *Manager) Logout() {
	m.mu.Lock()
	had := m.user != nil
	m.clearLocked(true)
	cb := m.onLogout
	m.mu.Unlock()

	if had {
		m.logger.Info().Str("reason", string(ReasonLogout)).Msg("Logged out")
		if cb != nil {
			cb(ReasonLogout)
		}
	}
}

// RecordActivity notes user activity. Without a persisted user it does
// nothing. Unless force is set, calls within ActivityThrottle of the last
// write are skipped.
func (m *Manager) RecordActivity(force bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if _, ok, err := m.storage.Get(UserKey); err != nil || !ok {
		return
	}
	m.recordActivityLocked(force)
}

func (m *Manager) recordActivityLocked(force bool) {
	now := m.clock.Now()
	if !force && !m.lastWrite.IsZero() && now.Sub(m.lastWrite) < ActivityThrottle {
		return
	}
	m.lastWrite = now
	m.lastActivity = now
	if err := m.storage.Set(LastActivityKey, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to persist activity timestamp")
	}
	m.scheduleLocked()
}

// User returns a copy of the current user, or nil.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// LastActivity returns the timestamp the timer is armed from.
func (m *Manager) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// Remaining returns the time until the session expires, or 0 without one.
func (m *Manager) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remainingLocked()
}

func (m *Manager) remainingLocked() time.Duration {
	if m.user == nil {
		return 0
	}
	d := m.lastActivity.Add(InactivityTimeout).Sub(m.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// Close stops the timer and storage subscription. Persisted state is kept.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.cancelLocked()
	unsub := m.unsubscribe
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// scheduleLocked (re)arms the single expiry callback.
func (m *Manager) scheduleLocked() {
	m.cancelLocked()
	if m.closed || m.user == nil {
		return
	}
	gen := m.timerGen
	m.cancelTimer = m.sched.Schedule(m.remainingLocked(), func() { m.onTimer(gen) })
}

// cancelLocked drops the pending callback. Bumping the generation also
// disarms a callback that is already running on another goroutine.
func (m *Manager) cancelLocked() {
	m.timerGen++
	if m.cancelTimer != nil {
		m.cancelTimer()
		m.cancelTimer = nil
	}
}

func (m *Manager) onTimer(gen uint64) {
	m.mu.Lock()
	if gen != m.timerGen || m.closed || m.user == nil {
		m.mu.Unlock()
		return
	}
	m.cancelTimer = nil

	// Another instance may have refreshed the timestamp before its
	// notification reached us.
	if last, ok := m.readLastActivity(); ok && last.After(m.lastActivity) {
		m.lastActivity = last
	}
	if m.remainingLocked() > 0 {
		m.scheduleLocked()
		m.mu.Unlock()
		return
	}

	m.clearLocked(true)
	cb := m.onLogout
	m.mu.Unlock()

	m.logger.Info().Str("reason", string(ReasonExpired)).Msg("Session expired after inactivity")
	if cb != nil {
		cb(ReasonExpired)
	}
}

// handleChange reacts to writes made by other instances.
func (m *Manager) handleChange(c Change) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	var ended Reason
	switch c.Key {
	case UserKey:
		had := m.user != nil
		user, err := m.readUser()
		switch {
		case err != nil:
			m.logger.Warn().Err(err).Msg("Unreadable session written by another instance")
			m.clearLocked(false)
			if had {
				ended = ReasonCorrupt
			}
		case user == nil:
			m.clearLocked(false)
			if had {
				ended = ReasonRemote
			}
		default:
			m.user = user
			if last, ok := m.readLastActivity(); ok {
				m.lastActivity = last
			} else if m.lastActivity.IsZero() {
				m.lastActivity = m.clock.Now()
			}
			m.scheduleLocked()
			m.logger.Debug().Msg("Session synchronized from another instance")
		}

	case LastActivityKey:
		if m.user == nil {
			break
		}
		if last, ok := m.readLastActivity(); ok {
			m.lastActivity = last
			m.scheduleLocked()
		}
	}
	cb := m.onLogout
	m.mu.Unlock()

	if ended != "" {
		m.logger.Info().Str("reason", string(ended)).Msg("Session ended by another instance")
		if cb != nil {
			cb(ended)
		}
	}
}

// clearLocked drops in-memory state. persist also removes the stored keys;
// it is false when reacting to another instance so its writes are never
// overwritten.
func (m *Manager) clearLocked(persist bool) {
	m.cancelLocked()
	m.user = nil
	m.lastActivity = time.Time{}
	m.lastWrite = time.Time{}
	if !persist {
		return
	}
	if err := m.storage.Remove(UserKey); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to remove persisted user")
	}
	if err := m.storage.Remove(LastActivityKey); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to remove activity timestamp")
	}
}

var errCorruptUser = errors.New("corrupt persisted user")

// readUser returns (nil, nil) when no user is stored.
func (m *Manager) readUser() (*models.User, error) {
	raw, ok, err := m.storage.Get(UserKey)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptUser, err)
	}
	if u.Username == "" {
		return nil, fmt.Errorf("%w: missing username", errCorruptUser)
	}
	return &u, nil
}

func (m *Manager) readLastActivity() (time.Time, bool) {
	raw, ok, err := m.storage.Get(LastActivityKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
