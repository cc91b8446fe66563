// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const lockoutKeyPrefix = "lockout:"

// BadgerLockoutStore persists lockout entries in BadgerDB so that lockouts
// survive a server restart. Each entry carries a TTL that outlives its lock
// by the retention window, so Badger eventually drops entries even if the
// janitor never runs.
type BadgerLockoutStore struct {
	db    *badger.DB
	owned bool
}

// OpenBadgerLockoutStore opens (or creates) a lockout database in dir.
func OpenBadgerLockoutStore(dir string) (*BadgerLockoutStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create lockout dir: %w", err)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for lockouts: %w", err)
	}
	return &BadgerLockoutStore{db: db, owned: true}, nil
}

// NewBadgerLockoutStore uses an already open database. The caller keeps
// ownership of db.
func NewBadgerLockoutStore(db *badger.DB) *BadgerLockoutStore {
	return &BadgerLockoutStore{db: db}
}

// Close closes the database if the store opened it.
func (s *BadgerLockoutStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func lockoutKey(username string) []byte {
	return []byte(lockoutKeyPrefix + username)
}

// GetEntry retrieves a lockout entry.
func (s *BadgerLockoutStore) GetEntry(_ context.Context, username string) (*LockoutEntry, error) {
	var entry LockoutEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(lockoutKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrLockoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lockout entry: %w", err)
	}
	return &entry, nil
}

// SaveEntry persists a lockout entry.
func (s *BadgerLockoutStore) SaveEntry(_ context.Context, entry *LockoutEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal lockout entry: %w", err)
	}

	ttl := entryRetention
	if until := time.Until(entry.LockedUntil); until > 0 {
		ttl += until
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(lockoutKey(entry.Username), data).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("save lockout entry: %w", err)
	}
	return nil
}

// DeleteEntry removes a lockout entry.
func (s *BadgerLockoutStore) DeleteEntry(_ context.Context, username string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(lockoutKey(username)); err != nil {
			return err
		}
		return txn.Delete(lockoutKey(username))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrLockoutNotFound
	}
	if err != nil {
		return fmt.Errorf("delete lockout entry: %w", err)
	}
	return nil
}

// forEach decodes every stored entry. Undecodable values are skipped.
func (s *BadgerLockoutStore) forEach(fn func(entry *LockoutEntry)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(lockoutKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var entry LockoutEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				continue
			}
			fn(&entry)
		}
		return nil
	})
}

// ListLockedEntries returns the entries locked at now.
func (s *BadgerLockoutStore) ListLockedEntries(_ context.Context, now time.Time) ([]*LockoutEntry, error) {
	var locked []*LockoutEntry
	err := s.forEach(func(entry *LockoutEntry) {
		if entry.IsLockedAt(now) {
			locked = append(locked, entry)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list lockout entries: %w", err)
	}
	return locked, nil
}

// CleanupExpired removes expired entries.
func (s *BadgerLockoutStore) CleanupExpired(_ context.Context, now time.Time) (int, error) {
	var expired [][]byte
	err := s.forEach(func(entry *LockoutEntry) {
		if entry.expiredAt(now) {
			expired = append(expired, lockoutKey(entry.Username))
		}
	})
	if err != nil {
		return 0, fmt.Errorf("scan lockout entries: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete expired lockouts: %w", err)
	}
	return len(expired), nil
}
