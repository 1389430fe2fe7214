package store

import (
	"time"

	"quantum-social/internal/signals"
)

// Filter narrows a snapshot the way the star map filter chips do. Empty
// fields match everything.
type Filter struct {
	WishNetOnly  bool
	Kinds        []signals.Kind
	Categories   []signals.Category
	MinRemaining time.Duration
}

// Match reports whether sig passes the filter at now. Mix signals always count
// as WishNet.
func (f Filter) Match(sig signals.Signal, now time.Time) bool {
	if f.WishNetOnly && sig.Category != signals.WishNet && sig.Kind() != signals.KindMix {
		return false
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, sig.Kind()) {
		return false
	}
	if len(f.Categories) > 0 && !containsCategory(f.Categories, sig.Category) {
		return false
	}
	if f.MinRemaining > 0 {
		if left, ok := sig.Remaining(now); ok && left < f.MinRemaining {
			return false
		}
	}
	return true
}

// Apply returns the matching signals, preserving order.
func (f Filter) Apply(snapshot []signals.Signal, now time.Time) []signals.Signal {
	out := make([]signals.Signal, 0, len(snapshot))
	for _, sig := range snapshot {
		if f.Match(sig, now) {
			out = append(out, sig)
		}
	}
	return out
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return !f.WishNetOnly && len(f.Kinds) == 0 && len(f.Categories) == 0 && f.MinRemaining == 0
}

func containsKind(list []signals.Kind, k signals.Kind) bool {
	for _, v := range list {
		if v == k {
			return true
		}
	}
	return false
}

func containsCategory(list []signals.Category, c signals.Category) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}
