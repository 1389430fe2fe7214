package store

import (
	"testing"
	"time"

	"quantum-social/internal/signals"
)

var t0 = time.UnixMilli(1_700_000_000_000)

func textSignal(id string, createdAt time.Time) signals.Signal {
	return signals.Signal{
		ID:           id,
		CreatedAt:    createdAt,
		Category:     signals.Ephemeral,
		ExpireOnRead: true,
		TTL:          signals.TextTTL,
		HasTTL:       true,
		Payload:      signals.Text{Body: "hello " + id},
	}
}

func mixSignal(id string, createdAt time.Time) signals.Signal {
	return signals.Signal{
		ID:        id,
		CreatedAt: createdAt,
		Category:  signals.WishNet,
		TTL:       signals.MixTTL,
		HasTTL:    true,
		Payload:   signals.Mix{Parts: []signals.Signal{textSignal(id+"-part", createdAt)}},
	}
}

func ids(list []signals.Signal) []string {
	out := make([]string, len(list))
	for i, sig := range list {
		out[i] = sig.ID
	}
	return out
}

func equalIDs(got []signals.Signal, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].ID != want[i] {
			return false
		}
	}
	return true
}

func recv(t *testing.T, sub *Subscription) []signals.Signal {
	t.Helper()
	select {
	case snap, ok := <-sub.C():
		if !ok {
			t.Fatalf("subscription closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return nil
}

func expectNoSnapshot(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case snap := <-sub.C():
		t.Fatalf("unexpected snapshot %v", ids(snap))
	case <-time.After(50 * time.Millisecond):
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
