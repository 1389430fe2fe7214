package signals

import (
	"time"
)

// Category separates short-lived broadcasts from pinned WishNet ones.
type Category string

const (
	Ephemeral Category = "ephemeral"
	WishNet   Category = "wishnet"
)

// Signal is one user-authored broadcast. Values are treated as immutable once
// published: the store keeps its own deep copy.
type Signal struct {
	ID           string
	CreatedAt    time.Time
	Category     Category
	ExpireOnRead bool
	// TTL is measured from CreatedAt and only applies when HasTTL is set.
	// A signal without a TTL never expires by time; a defined TTL of zero
	// is already expired at CreatedAt.
	TTL     time.Duration
	HasTTL  bool
	Payload Payload
}

// Kind reports the payload kind, or the empty string for a signal without payload.
func (s Signal) Kind() Kind {
	if s.Payload == nil {
		return ""
	}
	return s.Payload.Kind()
}

// ExpiresAt returns CreatedAt+TTL. ok is false when the signal has no TTL.
func (s Signal) ExpiresAt() (time.Time, bool) {
	if !s.HasTTL {
		return time.Time{}, false
	}
	return s.CreatedAt.Add(s.TTL), true
}

// Remaining returns the time left before expiry at now.
func (s Signal) Remaining(now time.Time) (time.Duration, bool) {
	at, ok := s.ExpiresAt()
	if !ok {
		return 0, false
	}
	return at.Sub(now), true
}

// IsExpired reports whether now has reached the expiry instant.
func (s Signal) IsExpired(now time.Time) bool {
	left, ok := s.Remaining(now)
	return ok && left <= 0
}

// IsExpiring reports whether the signal is still alive but will expire within window.
func (s Signal) IsExpiring(now time.Time, window time.Duration) bool {
	left, ok := s.Remaining(now)
	return ok && left > 0 && left <= window
}

// WithTTL returns a copy of s that expires ttl after CreatedAt.
func (s Signal) WithTTL(ttl time.Duration) Signal {
	s.TTL = ttl
	s.HasTTL = true
	return s
}

// Clone returns a deep copy so callers cannot alter a published Mix through
// the slice they passed in.
func (s Signal) Clone() Signal {
	if mix, ok := s.Payload.(Mix); ok {
		parts := make([]Signal, len(mix.Parts))
		for i, part := range mix.Parts {
			parts[i] = part.Clone()
		}
		s.Payload = Mix{Parts: parts}
	}
	return s
}
