package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports store activity to Prometheus. It is registered as a store
// Observer; the sweeper reports pass durations through ObserveSweep.
type Metrics struct {
	published     *prometheus.CounterVec
	removed       *prometheus.CounterVec
	live          prometheus.Gauge
	sweepDuration prometheus.Histogram
}

// NewMetrics registers the store collectors on reg. A nil reg uses a private
// registry, which keeps tests from colliding on the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quantum",
			Subsystem: "signals",
			Name:      "published_total",
			Help:      "Signals published, by payload kind.",
		}, []string{"kind"}),
		removed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quantum",
			Subsystem: "signals",
			Name:      "removed_total",
			Help:      "Signals removed from the live set, by reason.",
		}, []string{"reason"}),
		live: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "quantum",
			Subsystem: "signals",
			Name:      "live",
			Help:      "Signals currently in the live set.",
		}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quantum",
			Subsystem: "signals",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of expiry sweep passes.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
	}
}

// Observe implements Observer.
func (m *Metrics) Observe(evt Event) {
	switch evt.Kind {
	case EventPublished:
		for _, sig := range evt.Signals {
			m.published.WithLabelValues(string(sig.Kind())).Inc()
		}
	default:
		if n := len(evt.Signals); n > 0 {
			m.removed.WithLabelValues(string(evt.Kind)).Add(float64(n))
		}
	}
	m.live.Set(float64(evt.Live))
}

// ObserveSweep records one sweep pass.
func (m *Metrics) ObserveSweep(d time.Duration) {
	m.sweepDuration.Observe(d.Seconds())
}
