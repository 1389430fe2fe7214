package ui

import (
	"time"

	"quantum-social/internal/signals"
)

// Sink is the interface every rendering surface satisfies. ShowSignals
// receives each store snapshot in order, newest signal first.
type Sink interface {
	ShowSignals([]signals.Signal)
	ShowSystem(string)
}

// RenderOptions are shared by all surfaces.
type RenderOptions struct {
	Now func() time.Time
	// ExpiringWindow marks signals with less time left as fading.
	ExpiringWindow time.Duration
}

// DefaultExpiringWindow matches the fade-out window of the signal cards.
const DefaultExpiringWindow = 5 * time.Second

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.ExpiringWindow <= 0 {
		o.ExpiringWindow = DefaultExpiringWindow
	}
	return o
}

type multiSink struct {
	sinks []Sink
}

// NewMultiSink fans events out to each registered sink.
func NewMultiSink(sinks ...Sink) Sink {
	return &multiSink{sinks: sinks}
}

func (m *multiSink) ShowSignals(snapshot []signals.Signal) {
	for _, sink := range m.sinks {
		if sink != nil {
			sink.ShowSignals(snapshot)
		}
	}
}

func (m *multiSink) ShowSystem(text string) {
	for _, sink := range m.sinks {
		if sink != nil {
			sink.ShowSystem(text)
		}
	}
}
