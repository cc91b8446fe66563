// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/posmap/internal/logging"
)

const (
	// badgerKeyPrefix namespaces session entries inside the database.
	badgerKeyPrefix = "session:"
	// badgerReadyPrefix marks subscription probes; never a session key.
	badgerReadyPrefix = "~ready:"

	subscribeTimeout = 5 * time.Second
)

// badgerEnvelope wraps every stored value with the identity of its writer.
// Removals are tombstones so the change event still names its origin.
type badgerEnvelope struct {
	Origin  string `json:"origin"`
	Value   string `json:"value"`
	Deleted bool   `json:"deleted,omitempty"`
}

// BadgerStorage is a Storage persisted in BadgerDB. Several BadgerStorage
// values may share one *badger.DB; each has its own origin and only sees
// changes written by the others.
type BadgerStorage struct {
	db     *badger.DB
	origin string
	owned  bool

	mu      sync.Mutex
	cancels []context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// OpenBadgerStorage opens (or creates) a session database in dir.
func OpenBadgerStorage(dir string) (*BadgerStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for session: %w", err)
	}
	s := NewBadgerStorage(db)
	s.owned = true
	return s, nil
}

// NewBadgerStorage attaches a new participant to db. The caller keeps
// ownership of db.
func NewBadgerStorage(db *badger.DB) *BadgerStorage {
	return &BadgerStorage{db: db, origin: uuid.New().String()}
}

// Origin identifies this participant's writes.
func (s *BadgerStorage) Origin() string {
	return s.origin
}

func badgerKey(key string) []byte {
	return []byte(badgerKeyPrefix + key)
}

func (s *BadgerStorage) read(key string) (*badgerEnvelope, error) {
	var env *badgerEnvelope
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var e badgerEnvelope
			if err := json.Unmarshal(val, &e); err != nil {
				return fmt.Errorf("decode session entry: %w", err)
			}
			env = &e
			return nil
		})
	})
	return env, err
}

// Get implements Storage.
func (s *BadgerStorage) Get(key string) (string, bool, error) {
	env, err := s.read(key)
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	if env == nil || env.Deleted {
		return "", false, nil
	}
	return env.Value, true, nil
}

func (s *BadgerStorage) write(key string, env badgerEnvelope) error {
	data, err := json.Marshal(&env)
	if err != nil {
		return fmt.Errorf("encode session entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(key), data)
	})
}

// Set implements Storage.
func (s *BadgerStorage) Set(key, value string) error {
	if err := s.write(key, badgerEnvelope{Origin: s.origin, Value: value}); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove implements Storage. Removing a missing key writes nothing.
func (s *BadgerStorage) Remove(key string) error {
	env, err := s.read(key)
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	if env == nil || env.Deleted {
		return nil
	}
	if err := s.write(key, badgerEnvelope{Origin: s.origin, Deleted: true}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Subscribe implements Storage on top of badger.DB.Subscribe. Events
// written by this participant are dropped. Subscribe returns once the
// subscription is registered, so no later write is missed.
func (s *BadgerStorage) Subscribe(fn func(Change)) func() {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return func() {}
	}
	s.cancels = append(s.cancels, cancel)
	s.wg.Add(1)
	s.mu.Unlock()

	probe := badgerReadyPrefix + uuid.New().String()
	ready := make(chan struct{})
	var readyOnce sync.Once

	match := []pb.Match{{Prefix: []byte(badgerKeyPrefix)}}
	go func() {
		defer s.wg.Done()
		err := s.db.Subscribe(ctx, func(kvs *badger.KVList) error {
			for _, kv := range kvs.GetKv() {
				key := string(kv.GetKey()[len(badgerKeyPrefix):])
				if strings.HasPrefix(key, badgerReadyPrefix) {
					if key == probe {
						readyOnce.Do(func() { close(ready) })
					}
					continue
				}
				var env badgerEnvelope
				if err := json.Unmarshal(kv.GetValue(), &env); err != nil {
					continue
				}
				if env.Origin == s.origin {
					continue
				}
				fn(Change{Key: key, Value: env.Value, Removed: env.Deleted})
			}
			return nil
		}, match)
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Warn().Err(err).Msg("Session storage subscription ended")
		}
		readyOnce.Do(func() { close(ready) })
	}()

	s.awaitSubscription(probe, ready)

	var once sync.Once
	return func() { once.Do(cancel) }
}

// awaitSubscription writes probe until the subscriber observes it.
func (s *BadgerStorage) awaitSubscription(probe string, ready <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(subscribeTimeout)
	for {
		_ = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(badgerKey(probe), nil)
		})
		select {
		case <-ready:
			_ = s.db.Update(func(txn *badger.Txn) error {
				return txn.Delete(badgerKey(probe))
			})
			return
		case <-deadline:
			logging.Warn().Msg("Session storage subscription not confirmed")
			return
		case <-ticker.C:
		}
	}
}

// Close ends all subscriptions and closes the database if this storage
// opened it.
func (s *BadgerStorage) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if s.owned {
		return s.db.Close()
	}
	return nil
}
