package app

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

var t0 = time.UnixMilli(1_700_000_000_000)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestApp(t *testing.T, mutate func(*Config)) (*App, *fakeClock, *syncBuffer) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.NoColor = true
	cfg.UseCLI = true
	cfg.SweepInterval = 10 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}
	clock := &fakeClock{now: t0}
	out := &syncBuffer{}
	a, err := NewApp(cfg, nil, WithIO(strings.NewReader(""), out), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a, clock, out
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
	t.Fatalf("condition not met before timeout")
}
