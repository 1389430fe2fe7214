package signals

import (
	"testing"
	"time"
)

func TestIsExpiredHonoursTTLBoundary(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)
	sig := Signal{ID: "a", CreatedAt: t0, TTL: 30 * time.Second, HasTTL: true}

	if sig.IsExpired(t0.Add(29999 * time.Millisecond)) {
		t.Fatalf("signal should be alive 1ms before expiry")
	}
	if !sig.IsExpired(t0.Add(30 * time.Second)) {
		t.Fatalf("signal should be expired exactly at expiresAt")
	}
	if !sig.IsExpired(t0.Add(time.Hour)) {
		t.Fatalf("signal should stay expired after expiresAt")
	}
	at, ok := sig.ExpiresAt()
	if !ok || !at.Equal(t0.Add(30*time.Second)) {
		t.Fatalf("unexpected expiresAt: %v ok=%t", at, ok)
	}
}

func TestSignalWithoutTTLNeverExpires(t *testing.T) {
	t0 := time.Now()
	sig := Signal{ID: "forever", CreatedAt: t0}
	for _, offset := range []time.Duration{-time.Hour, 0, time.Second, 365 * 24 * time.Hour} {
		if sig.IsExpired(t0.Add(offset)) {
			t.Fatalf("signal without ttl expired at offset %s", offset)
		}
	}
	if _, ok := sig.Remaining(t0); ok {
		t.Fatalf("remaining should be undefined without ttl")
	}
	if _, ok := sig.ExpiresAt(); ok {
		t.Fatalf("expiresAt should be undefined without ttl")
	}
}

func TestZeroTTLExpiresAtCreation(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)
	sig := Signal{ID: "z", CreatedAt: t0}.WithTTL(0)

	if sig.IsExpired(t0.Add(-time.Millisecond)) {
		t.Fatalf("zero ttl signal expired before creation")
	}
	if !sig.IsExpired(t0) {
		t.Fatalf("zero ttl signal should be expired at createdAt")
	}
	at, ok := sig.ExpiresAt()
	if !ok || !at.Equal(t0) {
		t.Fatalf("unexpected expiresAt: %v ok=%t", at, ok)
	}
	if got := Countdown(sig, t0); got != "0s" {
		t.Fatalf("countdown = %q", got)
	}
}

func TestIsExpiringWindow(t *testing.T) {
	t0 := time.Now()
	sig := Signal{CreatedAt: t0, TTL: 10 * time.Second, HasTTL: true}
	window := 5 * time.Second

	if sig.IsExpiring(t0.Add(4*time.Second), window) {
		t.Fatalf("6s left should not be inside a 5s window")
	}
	if !sig.IsExpiring(t0.Add(5*time.Second), window) {
		t.Fatalf("5s left should be inside a 5s window")
	}
	if sig.IsExpiring(t0.Add(10*time.Second), window) {
		t.Fatalf("expired signal is no longer expiring")
	}
	if (Signal{CreatedAt: t0}).IsExpiring(t0, window) {
		t.Fatalf("immortal signal never fades")
	}
}

func TestCloneCopiesMixParts(t *testing.T) {
	parts := []Signal{{ID: "p1", Payload: Text{Body: "one"}}}
	mix := Signal{ID: "m", Payload: Mix{Parts: parts}}

	clone := mix.Clone()
	parts[0].ID = "mutated"

	got := clone.Payload.(Mix).Parts[0].ID
	if got != "p1" {
		t.Fatalf("clone shares parts with caller slice, got %q", got)
	}
}

func TestBadgeAndCountdown(t *testing.T) {
	t0 := time.Now()
	sig := Signal{CreatedAt: t0, Category: Ephemeral, TTL: 30 * time.Second, HasTTL: true}
	if got := Badge(sig, t0, 5*time.Second); got != "ephemeral" {
		t.Fatalf("badge = %q", got)
	}
	if got := Badge(sig, t0.Add(27*time.Second), 5*time.Second); got != "fading" {
		t.Fatalf("badge = %q", got)
	}
	if got := Countdown(sig, t0.Add(10*time.Second)); got != "20s" {
		t.Fatalf("countdown = %q", got)
	}
	if got := Countdown(Signal{CreatedAt: t0}, t0); got != "∞" {
		t.Fatalf("countdown = %q", got)
	}
}
