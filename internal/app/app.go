package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"quantum-social/internal/compose"
	"quantum-social/internal/crypto"
	"quantum-social/internal/diag"
	"quantum-social/internal/journal"
	"quantum-social/internal/store"
	"quantum-social/internal/ui"
)

// App owns one signal store and everything attached to it.
type App struct {
	Cfg *Config

	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
	now    func() time.Time
	in     io.Reader
	out    io.Writer

	Store    *store.Store
	Sweeper  *store.Sweeper
	Metrics  *store.Metrics
	Registry *prometheus.Registry
	Composer *compose.Composer
	Journal  *journal.Journal
	Diag     *diag.Server

	sink ui.Sink
	sub  *store.Subscription
	tui  *ui.TUIDisplay
	web  *ui.WebBridge

	filterMu sync.Mutex
	filter   store.Filter

	wg           sync.WaitGroup
	startOnce    sync.Once
	shutdownOnce sync.Once
	quit         chan struct{}
}

// Option adjusts NewApp.
type Option func(*App)

// WithIO replaces stdin and stdout for the CLI surface.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = in
		a.out = out
	}
}

// WithClock replaces time.Now for the store, sweeper and renderers.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// NewApp wires all dependencies according to cfg.
func NewApp(cfg *Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		Cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		log:    logger,
		now:    time.Now,
		in:     os.Stdin,
		out:    os.Stdout,
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = store.NewMetrics(a.Registry)
	observers := []store.Observer{a.Metrics}

	if cfg.JournalDB != "" {
		box, err := crypto.NewBox(cfg.JournalSecret)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("journal secret: %w", err)
		}
		j, err := journal.Open(cfg.JournalDB, box, logger.Named("journal"))
		if err != nil {
			cancel()
			return nil, err
		}
		a.Journal = j
		observers = append(observers, j)
		logger.Info("journal enabled", zap.String("path", cfg.JournalDB), zap.Bool("sealed", box.Enabled()))
	}

	a.Store = store.New(store.Options{
		Now:       a.now,
		Observers: observers,
		Logger:    logger.Named("store"),
	})
	a.Sweeper = store.NewSweeper(a.Store, store.SweeperOptions{
		Interval: cfg.SweepInterval,
		Now:      a.now,
		Metrics:  a.Metrics,
		Logger:   logger.Named("sweeper"),
	})
	a.Composer = compose.New(a.Store, a.now, logger.Named("compose"))

	if cfg.DiagAddr != "" {
		var dropped func() uint64
		if a.Journal != nil {
			dropped = a.Journal.Dropped
		}
		a.Diag = diag.New(diag.Options{
			Addr:     cfg.DiagAddr,
			Stats:    a.Store,
			Registry: a.Registry,
			Dropped:  dropped,
			Logger:   logger.Named("diag"),
		})
	}
	return a, nil
}

func (a *App) renderOptions() ui.RenderOptions {
	return ui.RenderOptions{Now: a.now, ExpiringWindow: a.Cfg.ExpiringWindow}
}

// Context is cancelled when the app shuts down.
func (a *App) Context() context.Context {
	return a.ctx
}

// Done is closed when a user asks to quit.
func (a *App) Done() <-chan struct{} {
	return a.quit
}

func (a *App) requestQuit() {
	select {
	case <-a.quit:
	default:
		close(a.quit)
	}
}
