package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"quantum-social/internal/signals"
	"quantum-social/internal/store"
)

const helpText = "commands: /text <msg> /emoji <glyph> /audio <path> <duration> /image <uri> /flash [intensity] [duration] " +
	"/mix <id>... /read <id> /clear /list /filter [off|wishnet|kind <k,...>|category <c,...>|min <duration>] " +
	"/seed [n] /stats /journal [n] /quit"

var (
	errNoMatch   = errors.New("no live signal matches")
	errAmbiguous = errors.New("id prefix is ambiguous")
)

// ReadInput feeds lines from reader to ProcessLine until EOF.
func (a *App) ReadInput(reader io.Reader) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		a.ProcessLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		a.log.Warn("stdin read failed", zap.Error(err))
	}
}

// ProcessLine handles one line of user input. Plain text is published as a
// text signal.
func (a *App) ProcessLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if strings.HasPrefix(line, "/") {
		a.handleCommand(line)
		return
	}
	a.report(a.Composer.Text(line))
}

// MarkRead marks the signal named by id, or by a unique prefix of it, as read.
func (a *App) MarkRead(id string) {
	if full, err := a.resolveID(id); err == nil {
		id = full
	}
	a.Store.MarkRead(id)
}

func (a *App) handleCommand(line string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
	switch parts[0] {
	case "/text":
		if rest == "" {
			a.system("usage: /text <message>")
			return
		}
		a.report(a.Composer.Text(rest))
	case "/emoji":
		if rest == "" {
			a.system("usage: /emoji <glyph>")
			return
		}
		a.report(a.Composer.Emoji(rest))
	case "/audio":
		if len(parts) < 3 {
			a.system("usage: /audio <path> <duration>")
			return
		}
		d, err := time.ParseDuration(parts[2])
		if err != nil {
			a.system(fmt.Sprintf("bad duration %q", parts[2]))
			return
		}
		a.report(a.Composer.Audio(parts[1], d))
	case "/image":
		if rest == "" {
			a.system("usage: /image <uri>")
			return
		}
		a.report(a.Composer.Image(rest))
	case "/flash":
		intensity := 1.0
		var d time.Duration
		if len(parts) >= 2 {
			v, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				a.system(fmt.Sprintf("bad intensity %q", parts[1]))
				return
			}
			intensity = v
		}
		if len(parts) >= 3 {
			v, err := time.ParseDuration(parts[2])
			if err != nil {
				a.system(fmt.Sprintf("bad duration %q", parts[2]))
				return
			}
			d = v
		}
		a.report(a.Composer.Flash(intensity, d))
	case "/mix":
		if len(parts) < 2 {
			a.system("usage: /mix <id> [id...]")
			return
		}
		ids := make([]string, 0, len(parts)-1)
		for _, prefix := range parts[1:] {
			id, err := a.resolveID(prefix)
			if err != nil {
				a.system(fmt.Sprintf("mix failed: %v", err))
				return
			}
			ids = append(ids, id)
		}
		a.report(a.Composer.Mix(ids...))
	case "/read":
		if len(parts) < 2 {
			a.system("usage: /read <id>")
			return
		}
		id, err := a.resolveID(parts[1])
		if err != nil {
			a.system(fmt.Sprintf("read failed: %v", err))
			return
		}
		a.Store.MarkRead(id)
	case "/clear":
		a.Store.Clear()
		a.system("cleared")
	case "/list":
		a.listSignals()
	case "/filter":
		f, err := parseFilter(parts[1:])
		if err != nil {
			a.system(fmt.Sprintf("filter failed: %v", err))
			return
		}
		a.setFilter(f)
		if a.sink != nil {
			a.sink.ShowSignals(f.Apply(a.Store.Snapshot(), a.now()))
		}
		a.system("filter: " + describeFilter(f))
	case "/seed":
		n := 4
		if len(parts) >= 2 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v <= 0 {
				a.system("usage: /seed [n]")
				return
			}
			n = v
		}
		seeded, err := a.Composer.Seed(n)
		if err != nil {
			a.system(fmt.Sprintf("seed failed after %d signals: %v", len(seeded), err))
			return
		}
		a.system(fmt.Sprintf("seeded %d signals", len(seeded)))
	case "/stats":
		text := a.Store.Stats().String()
		if a.Journal != nil {
			text += fmt.Sprintf(" journal_dropped=%d", a.Journal.Dropped())
		}
		a.system(text)
	case "/journal":
		a.showJournal(parts[1:])
	case "/quit":
		a.system("bye")
		a.requestQuit()
	default:
		a.system(helpText)
	}
}

func (a *App) report(sig signals.Signal, err error) {
	if err != nil {
		a.system(err.Error())
		return
	}
	a.log.Debug("published from input", zap.String("id", sig.ID))
}

func (a *App) system(text string) {
	if a.sink == nil {
		a.log.Info(text)
		return
	}
	a.sink.ShowSystem(text)
}

func (a *App) listSignals() {
	now := a.now()
	snapshot := a.currentFilter().Apply(a.Store.Snapshot(), now)
	if len(snapshot) == 0 {
		a.system("no live signals")
		return
	}
	for _, sig := range snapshot {
		a.system(fmt.Sprintf("%s %s %s %s %s",
			sig.ID, sig.Kind(), signals.Badge(sig, now, a.Cfg.ExpiringWindow), signals.Countdown(sig, now), signals.Summary(sig)))
	}
}

func (a *App) showJournal(args []string) {
	if a.Journal == nil {
		a.system("journal disabled")
		return
	}
	limit := 10
	if len(args) >= 1 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			limit = v
		}
	}
	entries, err := a.Journal.Recent(limit)
	if err != nil {
		a.system(fmt.Sprintf("journal read failed: %v", err))
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		a.system(fmt.Sprintf("#%d %s %s signals=%d live=%d", e.Seq, e.At.Format("15:04:05"), e.Kind, len(e.Signals), e.Live))
	}
}

// resolveID expands a unique prefix of a live signal id.
func (a *App) resolveID(prefix string) (string, error) {
	var match string
	for _, sig := range a.Store.Snapshot() {
		if sig.ID == prefix {
			return sig.ID, nil
		}
		if strings.HasPrefix(sig.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", errAmbiguous, prefix)
			}
			match = sig.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", errNoMatch, prefix)
	}
	return match, nil
}

func (a *App) currentFilter() store.Filter {
	a.filterMu.Lock()
	defer a.filterMu.Unlock()
	return a.filter
}

func (a *App) setFilter(f store.Filter) {
	a.filterMu.Lock()
	a.filter = f
	a.filterMu.Unlock()
}

func parseFilter(args []string) (store.Filter, error) {
	var f store.Filter
	if len(args) == 0 || args[0] == "off" {
		return f, nil
	}
	switch args[0] {
	case "wishnet":
		f.WishNetOnly = true
	case "kind":
		if len(args) < 2 {
			return f, errors.New("usage: /filter kind <text,emoji,...>")
		}
		for _, name := range strings.Split(args[1], ",") {
			kind, ok := lookupKind(name)
			if !ok {
				return f, fmt.Errorf("unknown kind %q", name)
			}
			f.Kinds = append(f.Kinds, kind)
		}
	case "category":
		if len(args) < 2 {
			return f, errors.New("usage: /filter category <ephemeral,wishnet>")
		}
		for _, name := range strings.Split(args[1], ",") {
			switch signals.Category(strings.ToLower(name)) {
			case signals.Ephemeral:
				f.Categories = append(f.Categories, signals.Ephemeral)
			case signals.WishNet:
				f.Categories = append(f.Categories, signals.WishNet)
			default:
				return f, fmt.Errorf("unknown category %q", name)
			}
		}
	case "min":
		if len(args) < 2 {
			return f, errors.New("usage: /filter min <duration>")
		}
		d, err := time.ParseDuration(args[1])
		if err != nil || d <= 0 {
			return f, fmt.Errorf("bad duration %q", args[1])
		}
		f.MinRemaining = d
	default:
		return f, fmt.Errorf("unknown filter %q", args[0])
	}
	return f, nil
}

func lookupKind(name string) (signals.Kind, bool) {
	for _, k := range signals.Kinds {
		if string(k) == strings.ToLower(strings.TrimSpace(name)) {
			return k, true
		}
	}
	return "", false
}

func describeFilter(f store.Filter) string {
	switch {
	case f.IsZero():
		return "off"
	case f.WishNetOnly:
		return "wishnet only"
	case len(f.Kinds) > 0:
		names := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			names[i] = string(k)
		}
		return "kinds " + strings.Join(names, ",")
	case len(f.Categories) > 0:
		names := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			names[i] = string(c)
		}
		return "categories " + strings.Join(names, ",")
	default:
		return "at least " + f.MinRemaining.String() + " left"
	}
}
