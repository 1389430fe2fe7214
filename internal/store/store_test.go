package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"quantum-social/internal/signals"
)

func TestPublishKeepsNewestFirst(t *testing.T) {
	s := New(Options{})
	s.Publish(textSignal("x", t0))
	s.Publish(textSignal("y", t0.Add(time.Millisecond)))

	if got := s.Snapshot(); !equalIDs(got, "y", "x") {
		t.Fatalf("expected [y x], got %v", ids(got))
	}
}

func TestPublishDoesNotReorderByCategoryOrTTL(t *testing.T) {
	s := New(Options{})
	s.Publish(mixSignal("mix", t0))
	s.Publish(textSignal("text", t0))
	s.Publish(signals.Signal{ID: "forever", CreatedAt: t0, Payload: signals.Emoji{Glyph: "⭐"}})

	if got := s.Snapshot(); !equalIDs(got, "forever", "text", "mix") {
		t.Fatalf("unexpected order %v", ids(got))
	}
}

func TestPublishAssignsIDAndReplacesDuplicates(t *testing.T) {
	s := New(Options{})
	s.Publish(signals.Signal{CreatedAt: t0, Payload: signals.Text{Body: "anon"}})
	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].ID == "" {
		t.Fatalf("expected generated id, got %v", ids(snap))
	}

	s.Publish(textSignal("a", t0))
	s.Publish(textSignal("b", t0))
	s.Publish(textSignal("a", t0.Add(time.Second)))
	got := s.Snapshot()
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("duplicate id should replace older entry, got %v", ids(got))
	}
}

func TestPublishStoresDeepCopy(t *testing.T) {
	s := New(Options{})
	parts := []signals.Signal{textSignal("part", t0)}
	s.Publish(signals.Signal{ID: "mix", CreatedAt: t0, Payload: signals.Mix{Parts: parts}})
	parts[0].ID = "changed"

	sig, ok := s.Lookup("mix")
	if !ok {
		t.Fatalf("mix not found")
	}
	if got := sig.Payload.(signals.Mix).Parts[0].ID; got != "part" {
		t.Fatalf("store shares caller slice, part id %q", got)
	}
}

func TestSweepExpiredScenario(t *testing.T) {
	s := New(Options{})
	s.Publish(textSignal("text", t0))

	if removed := s.SweepExpired(t0.Add(29999 * time.Millisecond)); removed != 0 {
		t.Fatalf("nothing should expire yet, removed %d", removed)
	}
	if got := s.Snapshot(); !equalIDs(got, "text") {
		t.Fatalf("signal should still be present, got %v", ids(got))
	}
	if removed := s.SweepExpired(t0.Add(30000 * time.Millisecond)); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if got := s.Snapshot(); len(got) != 0 {
		t.Fatalf("signal should be gone, got %v", ids(got))
	}
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	s := New(Options{})
	s.Publish(textSignal("short", t0))
	s.Publish(mixSignal("long", t0))
	s.Publish(signals.Signal{ID: "forever", CreatedAt: t0, Payload: signals.Image{URI: "content://x"}})

	now := t0.Add(time.Minute)
	first := s.SweepExpired(now)
	after := s.Snapshot()
	second := s.SweepExpired(now)
	third := s.SweepExpired(now.Add(time.Second))

	if first != 1 || second != 0 || third != 0 {
		t.Fatalf("removals = %d, %d, %d", first, second, third)
	}
	if !equalIDs(after, "forever", "long") || !equalIDs(s.Snapshot(), "forever", "long") {
		t.Fatalf("unexpected state %v", ids(s.Snapshot()))
	}
}

func TestMarkRead(t *testing.T) {
	s := New(Options{})
	s.Publish(textSignal("text", t0))
	s.Publish(mixSignal("mix", t0))

	s.MarkRead("mix")
	if got := s.Snapshot(); !equalIDs(got, "mix", "text") {
		t.Fatalf("mix must survive markRead, got %v", ids(got))
	}

	s.MarkRead("nonexistent-id")
	if got := s.Snapshot(); !equalIDs(got, "mix", "text") {
		t.Fatalf("unknown id must not change state, got %v", ids(got))
	}

	s.MarkRead("text")
	if got := s.Snapshot(); !equalIDs(got, "mix") {
		t.Fatalf("text should be removed on read, got %v", ids(got))
	}
}

func TestRemovedIDIsNeverRevived(t *testing.T) {
	s := New(Options{})
	s.Publish(textSignal("a", t0))
	s.MarkRead("a")
	s.Publish(textSignal("a", t0))

	got := s.Snapshot()
	if len(got) != 1 || got[0].ID == "a" || got[0].ID == "" {
		t.Fatalf("removed id came back: %v", ids(got))
	}
	if _, ok := s.Lookup("a"); ok {
		t.Fatalf("lookup found the removed id")
	}

	s.Publish(textSignal("b", t0))
	s.SweepExpired(t0.Add(time.Hour))
	s.Publish(textSignal("b", t0.Add(time.Hour)))
	if _, ok := s.Lookup("b"); ok {
		t.Fatalf("expired id came back")
	}
}

func TestRetiredIDsAreBounded(t *testing.T) {
	s := New(Options{})
	for i := 0; i < retiredLimit+10; i++ {
		s.Publish(textSignal(fmt.Sprintf("r%d", i), t0))
	}
	s.Clear()
	if len(s.retired) != retiredLimit || len(s.retiredOrder) != retiredLimit {
		t.Fatalf("retired set grew to %d/%d", len(s.retired), len(s.retiredOrder))
	}
	if _, ok := s.retired["r0"]; ok {
		t.Fatalf("oldest retired id should be forgotten")
	}
}

func TestSweepRemovesZeroTTLSignal(t *testing.T) {
	s := New(Options{})
	s.Publish(signals.Signal{ID: "z", CreatedAt: t0, Payload: signals.Text{Body: "blink"}}.WithTTL(0))

	if removed := s.SweepExpired(t0); removed != 1 {
		t.Fatalf("zero ttl signal should expire at createdAt, removed %d", removed)
	}
	if got := s.Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty store, got %v", ids(got))
	}
}

func TestMarkReadOnlyRemovesFlaggedSignals(t *testing.T) {
	s := New(Options{})
	pinned := textSignal("pinned", t0)
	pinned.ExpireOnRead = false
	s.Publish(pinned)

	s.MarkRead("pinned")
	if got := s.Snapshot(); !equalIDs(got, "pinned") {
		t.Fatalf("signal without expireOnRead removed: %v", ids(got))
	}
}

func TestClearAlwaysEmpties(t *testing.T) {
	s := New(Options{})
	s.Clear()
	if got := s.Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty, got %v", ids(got))
	}
	s.Publish(textSignal("a", t0))
	s.Publish(mixSignal("b", t0))
	s.Clear()
	if got := s.Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty, got %v", ids(got))
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(Options{})
	s.Publish(textSignal("a", t0))
	snap := s.Snapshot()
	snap[0].ID = "tampered"
	if got := s.Snapshot(); !equalIDs(got, "a") {
		t.Fatalf("snapshot aliasing leaked into store: %v", ids(got))
	}
}

func TestStats(t *testing.T) {
	s := New(Options{})
	s.Publish(textSignal("a", t0))
	s.Publish(mixSignal("b", t0))
	sub := s.Subscribe()
	defer sub.Close()

	st := s.Stats()
	if st.Live != 2 || st.Subscribers != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.ByCategory[signals.Ephemeral] != 1 || st.ByCategory[signals.WishNet] != 1 {
		t.Fatalf("unexpected categories %+v", st.ByCategory)
	}
	if st.ByKind[signals.KindMix] != 1 || st.ByKind[signals.KindText] != 1 {
		t.Fatalf("unexpected kinds %+v", st.ByKind)
	}
	if st.String() != "live=2 ephemeral=1 wishnet=1 subscribers=1" {
		t.Fatalf("unexpected string %q", st.String())
	}
}

func TestObserversSeeEventsInOrder(t *testing.T) {
	var (
		mu     sync.Mutex
		events []Event
	)
	clock := t0
	s := New(Options{
		Now: func() time.Time { return clock },
		Observers: []Observer{ObserverFunc(func(evt Event) {
			mu.Lock()
			events = append(events, evt)
			mu.Unlock()
		})},
	})

	s.Publish(textSignal("a", t0))
	s.Publish(textSignal("b", t0))
	s.MarkRead("a")
	s.MarkRead("missing")
	s.SweepExpired(t0.Add(time.Hour))
	s.SweepExpired(t0.Add(time.Hour))
	s.Clear()

	mu.Lock()
	defer mu.Unlock()
	want := []EventKind{EventPublished, EventPublished, EventRead, EventExpired, EventCleared}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, kind := range want {
		if events[i].Kind != kind {
			t.Fatalf("event %d: expected %s, got %s", i, kind, events[i].Kind)
		}
	}
	if events[2].Signals[0].ID != "a" || events[3].Signals[0].ID != "b" {
		t.Fatalf("events carry wrong signals")
	}
	if events[1].Live != 2 || events[4].Live != 0 {
		t.Fatalf("unexpected live counts %d/%d", events[1].Live, events[4].Live)
	}
	if !events[0].At.Equal(t0) {
		t.Fatalf("event time = %v", events[0].At)
	}
}

func TestConcurrentPublishAndSweepLoseNothing(t *testing.T) {
	s := New(Options{})
	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Publish(signals.New(signals.Text{Body: "hi"}, time.Now()))
			}
		}()
	}
	stop := make(chan struct{})
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		for {
			select {
			case <-stop:
				return
			default:
				s.SweepExpired(time.Now())
			}
		}
	}()
	wg.Wait()
	close(stop)
	<-sweepDone

	if got := len(s.Snapshot()); got != writers*perWriter {
		t.Fatalf("expected %d live signals, got %d", writers*perWriter, got)
	}
}
