package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"quantum-social/internal/signals"
)

// TUIDisplay renders the live signals as a selectable list. Enter on a row
// marks that signal as read; the input line accepts the same commands as the CLI.
type TUIDisplay struct {
	app    *tview.Application
	list   *tview.List
	log    *tview.TextView
	input  *tview.InputField
	submit func(string)
	onRead func(string)
	opts   RenderOptions

	mu      sync.Mutex
	current []signals.Signal
	once    sync.Once
	stopped atomic.Bool

	// shown is the snapshot the list rows were built from. Only the event
	// loop touches it, so row indexes always resolve against what is on screen.
	shown []signals.Signal
}

func NewTUIDisplay(submit func(string), onRead func(string), opts RenderOptions) *TUIDisplay {
	list := tview.NewList().ShowSecondaryText(true)
	list.SetBorder(true).SetTitle("Signals")

	logView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	logView.SetBorder(true).SetTitle("System")

	input := tview.NewInputField().
		SetLabel("> ").
		SetFieldTextColor(tcell.ColorWhite)

	td := &TUIDisplay{
		app:    tview.NewApplication(),
		list:   list,
		log:    logView,
		input:  input,
		submit: submit,
		onRead: onRead,
		opts:   opts.withDefaults(),
	}

	list.SetSelectedFunc(func(index int, _ string, _ string, _ rune) {
		if id := td.idAt(index); id != "" && td.onRead != nil {
			go td.onRead(id)
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			text := strings.TrimSpace(input.GetText())
			if text != "" && td.submit != nil {
				go td.submit(text)
			}
			input.SetText("")
		}
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(list, 0, 5, false).
		AddItem(logView, 6, 1, false).
		AddItem(input, 3, 1, true)

	td.app.SetRoot(layout, true).EnableMouse(true)
	td.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyTab {
			if td.app.GetFocus() == td.input {
				td.app.SetFocus(td.list)
			} else {
				td.app.SetFocus(td.input)
			}
			return nil
		}
		return event
	})
	return td
}

// Run blocks until ctx is done. Countdowns are redrawn once a second.
func (t *TUIDisplay) Run(ctx context.Context) error {
	defer t.stopped.Store(true)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.once.Do(func() {
					t.app.Stop()
				})
				return
			case <-ticker.C:
				if t.stopped.Load() {
					return
				}
				t.app.QueueUpdateDraw(t.redraw)
			}
		}
	}()
	return t.app.Run()
}

func (t *TUIDisplay) ShowSignals(snapshot []signals.Signal) {
	t.mu.Lock()
	t.current = snapshot
	t.mu.Unlock()
	if t.stopped.Load() {
		return
	}
	t.app.QueueUpdateDraw(t.redraw)
}

func (t *TUIDisplay) ShowSystem(text string) {
	if t.stopped.Load() {
		return
	}
	content := fmt.Sprintf("[green]>>> %s[-]\n", tview.Escape(text))
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.log, content)
	})
}

// redraw runs on the tview event loop.
func (t *TUIDisplay) redraw() {
	t.mu.Lock()
	snapshot := t.current
	t.mu.Unlock()

	selected := t.list.GetCurrentItem()
	t.list.Clear()
	now := t.opts.Now()
	for _, sig := range snapshot {
		main, secondary := t.rows(sig, now)
		t.list.AddItem(main, secondary, 0, nil)
	}
	if selected >= 0 && selected < t.list.GetItemCount() {
		t.list.SetCurrentItem(selected)
	}
	t.list.SetTitle(fmt.Sprintf("Signals (%d)", len(snapshot)))
	t.shown = snapshot
}

func (t *TUIDisplay) rows(sig signals.Signal, now time.Time) (string, string) {
	badge := signals.Badge(sig, now, t.opts.ExpiringWindow)
	color := "white"
	switch badge {
	case "wishnet":
		color = "violet"
	case "fading":
		color = "orange"
	}
	main := fmt.Sprintf("[%s]%s[-] %s", color, sig.Kind(), tview.Escape(signals.Summary(sig)))
	secondary := fmt.Sprintf("%s  %s  %s", shortID(sig.ID), badge, signals.Countdown(sig, now))
	return main, secondary
}

// idAt runs on the tview event loop.
func (t *TUIDisplay) idAt(row int) string {
	if row < 0 || row >= len(t.shown) {
		return ""
	}
	return t.shown[row].ID
}
