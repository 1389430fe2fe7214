package store

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"quantum-social/internal/signals"
)

// Options configures a Store. The zero value is usable.
type Options struct {
	// Now stamps lifecycle events. Defaults to time.Now.
	Now       func() time.Time
	Observers []Observer
	Logger    *zap.Logger
}

// Store holds the live signals, newest first, and fans every change out to
// subscribers. All mutations run under one mutex: the new snapshot is computed,
// swapped in and queued for every subscriber before the lock is released, so
// subscribers observe mutations in the order they were applied.
type Store struct {
	mu        sync.Mutex
	current   []signals.Signal
	subs      map[*Subscription]struct{}
	observers []Observer
	now       func() time.Time
	log       *zap.Logger

	// retired remembers recently removed IDs, oldest first in retiredOrder.
	retired      map[string]struct{}
	retiredOrder []string
}

// retiredLimit bounds how many removed IDs the store remembers.
const retiredLimit = 4096

// New creates an empty store.
func New(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		current:   []signals.Signal{},
		subs:      make(map[*Subscription]struct{}),
		observers: append([]Observer(nil), opts.Observers...),
		now:       now,
		log:       logger,
		retired:   make(map[string]struct{}),
	}
}

// Publish puts sig at the head of the live list. The store keeps its own deep
// copy. An empty ID, or the ID of a recently removed signal, is replaced by a
// fresh one; publishing an ID that is already live replaces the older entry
// so IDs stay unique.
func (s *Store) Publish(sig signals.Signal) {
	sig = sig.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, gone := s.retired[sig.ID]; gone {
		s.log.Debug("republished id was removed, assigning a new one", zap.String("id", sig.ID))
		sig.ID = ""
	}
	if sig.ID == "" {
		sig.ID = signals.NewID()
	}

	next := make([]signals.Signal, 0, len(s.current)+1)
	next = append(next, sig)
	for _, existing := range s.current {
		if existing.ID == sig.ID {
			continue
		}
		next = append(next, existing)
	}
	s.commit(next, EventPublished, []signals.Signal{sig})
	s.log.Debug("signal published",
		zap.String("id", sig.ID),
		zap.String("kind", string(sig.Kind())),
		zap.Int("live", len(next)))
}

// MarkRead removes the signal with id when it exists and expires on read.
// Anything else is a no-op.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sig := range s.current {
		if sig.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || !s.current[idx].ExpireOnRead {
		return
	}
	removed := s.current[idx]
	next := make([]signals.Signal, 0, len(s.current)-1)
	next = append(next, s.current[:idx]...)
	next = append(next, s.current[idx+1:]...)
	s.commit(next, EventRead, []signals.Signal{removed})
	s.log.Debug("signal read", zap.String("id", id), zap.Int("live", len(next)))
}

// Clear drops every live signal.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.current
	s.commit([]signals.Signal{}, EventCleared, removed)
	s.log.Debug("signals cleared", zap.Int("removed", len(removed)))
}

// SweepExpired removes every signal expired at now and returns how many were
// removed. Subscribers are notified only when something changed.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []signals.Signal
	next := make([]signals.Signal, 0, len(s.current))
	for _, sig := range s.current {
		if sig.IsExpired(now) {
			expired = append(expired, sig)
			continue
		}
		next = append(next, sig)
	}
	if len(expired) == 0 {
		return 0
	}
	s.commit(next, EventExpired, expired)
	s.log.Debug("signals expired", zap.Int("removed", len(expired)), zap.Int("live", len(next)))
	return len(expired)
}

// Snapshot returns a copy of the live list, newest first.
func (s *Store) Snapshot() []signals.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]signals.Signal, len(s.current))
	copy(out, s.current)
	return out
}

// Lookup returns the live signal with id.
func (s *Store) Lookup(id string) (signals.Signal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sig := range s.current {
		if sig.ID == id {
			return sig, true
		}
	}
	return signals.Signal{}, false
}

// Subscribe returns a live view of the store. The current snapshot is
// delivered first, followed by one snapshot per mutation.
func (s *Store) Subscribe() *Subscription {
	sub := newSubscription(s)
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	sub.push(s.current)
	s.mu.Unlock()
	go sub.run()
	return sub
}

func (s *Store) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

// Stats summarises the live set.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Live:        len(s.current),
		Subscribers: len(s.subs),
		ByCategory:  make(map[signals.Category]int),
		ByKind:      make(map[signals.Kind]int),
	}
	for _, sig := range s.current {
		st.ByCategory[sig.Category]++
		st.ByKind[sig.Kind()]++
	}
	return st
}

// commit must be called with s.mu held. next is never modified afterwards.
func (s *Store) commit(next []signals.Signal, kind EventKind, affected []signals.Signal) {
	s.current = next
	if kind != EventPublished {
		s.retire(affected)
	}
	for sub := range s.subs {
		sub.push(next)
	}
	if len(s.observers) == 0 {
		return
	}
	evt := Event{Kind: kind, Signals: affected, Live: len(next), At: s.now()}
	for _, o := range s.observers {
		o.Observe(evt)
	}
}

// retire must be called with s.mu held.
func (s *Store) retire(removed []signals.Signal) {
	for _, sig := range removed {
		if _, ok := s.retired[sig.ID]; ok {
			continue
		}
		s.retired[sig.ID] = struct{}{}
		s.retiredOrder = append(s.retiredOrder, sig.ID)
	}
	for len(s.retiredOrder) > retiredLimit {
		delete(s.retired, s.retiredOrder[0])
		s.retiredOrder = s.retiredOrder[1:]
	}
}
