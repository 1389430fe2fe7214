package store

import (
	"time"

	"quantum-social/internal/signals"
)

// EventKind names the mutation that produced an Event.
type EventKind string

const (
	EventPublished EventKind = "published"
	EventRead      EventKind = "read"
	EventExpired   EventKind = "expired"
	EventCleared   EventKind = "cleared"
)

// Event describes one applied mutation. Signals holds the published signal or
// the removed ones; Live is the size of the resulting snapshot.
type Event struct {
	Kind    EventKind        `json:"kind"`
	Signals []signals.Signal `json:"signals"`
	Live    int              `json:"live"`
	At      time.Time        `json:"at"`
}

// Observer receives lifecycle events while the store lock is held, in
// mutation order. Implementations must return quickly and must not call back
// into the store.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(evt Event) { f(evt) }
