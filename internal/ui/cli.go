package ui

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"quantum-social/internal/signals"
)

const (
	ansiReset = "\x1b[0m"
	ansiTime  = "\x1b[36m"
	ansiWish  = "\x1b[35m"
	ansiFade  = "\x1b[33m"
	ansiSys   = "\x1b[32m"
	ansiGone  = "\x1b[90m"
)

// CLIDisplay prints arrivals and departures of signals as log lines. It
// diffs each snapshot against the previous one.
type CLIDisplay struct {
	out   io.Writer
	color bool
	opts  RenderOptions

	mu   sync.Mutex
	seen map[string]signals.Signal
}

func NewCLIDisplay(out io.Writer, color bool, opts RenderOptions) *CLIDisplay {
	if out == nil {
		out = os.Stdout
	}
	return &CLIDisplay{out: out, color: color, opts: opts.withDefaults(), seen: make(map[string]signals.Signal)}
}

func (c *CLIDisplay) ShowSignals(snapshot []signals.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make(map[string]signals.Signal, len(snapshot))
	// Oldest first so the terminal reads chronologically.
	for i := len(snapshot) - 1; i >= 0; i-- {
		sig := snapshot[i]
		next[sig.ID] = sig
		if _, ok := c.seen[sig.ID]; !ok {
			fmt.Fprintln(c.out, c.formatArrival(sig))
		}
	}
	for id, sig := range c.seen {
		if _, ok := next[id]; !ok {
			fmt.Fprintln(c.out, c.formatDeparture(sig))
		}
	}
	c.seen = next
}

func (c *CLIDisplay) ShowSystem(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.opts.Now().Format("15:04:05")
	if c.color {
		fmt.Fprintf(c.out, "%s[%s]%s %sSYSTEM%s: %s\n", ansiTime, ts, ansiReset, ansiSys, ansiReset, text)
		return
	}
	fmt.Fprintf(c.out, "[%s] SYSTEM: %s\n", ts, text)
}

func (c *CLIDisplay) formatArrival(sig signals.Signal) string {
	now := c.opts.Now()
	ts := sig.CreatedAt.Format("15:04:05")
	badge := signals.Badge(sig, now, c.opts.ExpiringWindow)
	line := fmt.Sprintf("+ [%s] %s %s (%s, %s) %s", ts, shortID(sig.ID), sig.Kind(), badge, signals.Countdown(sig, now), signals.Summary(sig))
	if !c.color {
		return line
	}
	color := ansiTime
	switch badge {
	case "wishnet":
		color = ansiWish
	case "fading":
		color = ansiFade
	}
	return color + line + ansiReset
}

func (c *CLIDisplay) formatDeparture(sig signals.Signal) string {
	line := fmt.Sprintf("- %s %s gone", shortID(sig.ID), sig.Kind())
	if c.color {
		return ansiGone + line + ansiReset
	}
	return line
}

// shortID keeps enough of a UUID to be typed back into /read.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ShouldUseColor determines if ANSI coloring should be enabled for CLI output.
func ShouldUseColor(disable bool) bool {
	if disable {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if runtime.GOOS == "windows" {
		if os.Getenv("WT_SESSION") != "" || os.Getenv("ANSICON") != "" || strings.EqualFold(os.Getenv("ConEmuANSI"), "ON") {
			return true
		}
		return false
	}
	return true
}
