// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package session

import "sync"

// MemoryStorage is an in-process shared store. Each View behaves like a
// browser tab over the same localStorage: writes through one view are
// delivered to the subscribers of every other view.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
	subs map[*memorySubscriber]struct{}

	// pending counts queued and running deliveries for Flush.
	pendingMu sync.Mutex
	pending   int
	idle      *sync.Cond
}

// NewMemoryStorage creates an empty shared store.
func NewMemoryStorage() *MemoryStorage {
	s := &MemoryStorage{
		data: make(map[string]string),
		subs: make(map[*memorySubscriber]struct{}),
	}
	s.idle = sync.NewCond(&s.pendingMu)
	return s
}

// View returns a new handle on the shared data with its own identity.
func (s *MemoryStorage) View() *MemoryView {
	return &MemoryView{store: s}
}

// Flush blocks until every queued change has been handled.
func (s *MemoryStorage) Flush() {
	s.pendingMu.Lock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	s.pendingMu.Unlock()
}

func (s *MemoryStorage) addPending(n int) {
	s.pendingMu.Lock()
	s.pending += n
	if s.pending <= 0 {
		s.pending = 0
		s.idle.Broadcast()
	}
	s.pendingMu.Unlock()
}

// write applies a mutation and fans it out to other views' subscribers.
// Subscribers are enqueued under the data lock so every subscriber observes
// writes in the same order they were applied.
func (s *MemoryStorage) write(from *MemoryView, key, value string, remove bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, existed := s.data[key]
	if remove {
		if !existed {
			return
		}
		delete(s.data, key)
	} else {
		if existed && old == value {
			return
		}
		s.data[key] = value
	}

	c := Change{Key: key, Value: value, Removed: remove}
	for sub := range s.subs {
		if sub.view == from {
			continue
		}
		sub.enqueue(c)
	}
}

// MemoryView is one participant of a MemoryStorage. It implements Storage.
type MemoryView struct {
	store *MemoryStorage
}

// Get implements Storage.
func (v *MemoryView) Get(key string) (string, bool, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	val, ok := v.store.data[key]
	return val, ok, nil
}

// Set implements Storage.
func (v *MemoryView) Set(key, value string) error {
	v.store.write(v, key, value, false)
	return nil
}

// Remove implements Storage. Removing a missing key notifies nobody.
func (v *MemoryView) Remove(key string) error {
	v.store.write(v, key, "", true)
	return nil
}

// Subscribe implements Storage. Each subscriber has its own delivery
// goroutine, so a slow handler never blocks writers.
func (v *MemoryView) Subscribe(fn func(Change)) func() {
	sub := &memorySubscriber{
		view:  v,
		store: v.store,
		fn:    fn,
		done:  make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)

	v.store.mu.Lock()
	v.store.subs[sub] = struct{}{}
	v.store.mu.Unlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.store.mu.Lock()
			delete(v.store.subs, sub)
			v.store.mu.Unlock()
			sub.stop()
		})
	}
}

type memorySubscriber struct {
	view  *MemoryView
	store *MemoryStorage
	fn    func(Change)

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Change
	stopped bool
	done    chan struct{}
}

func (s *memorySubscriber) enqueue(c Change) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, c)
	s.store.addPending(1)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *memorySubscriber) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped {
			dropped := len(s.queue)
			s.queue = nil
			s.mu.Unlock()
			s.store.addPending(-dropped)
			return
		}
		c := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(c)
		s.store.addPending(-1)
	}
}

func (s *memorySubscriber) stop() {
	s.mu.Lock()
	s.stopped = true
	s.cond.Signal()
	s.mu.Unlock()
}
