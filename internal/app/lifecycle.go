package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"quantum-social/internal/ui"
)

// Start launches the sweeper, the renderers and the optional servers.
func (a *App) Start() error {
	var startErr error
	a.startOnce.Do(func() {
		var sinks []ui.Sink
		if a.Cfg.UseCLI {
			sinks = append(sinks, ui.NewCLIDisplay(a.out, ui.ShouldUseColor(a.Cfg.NoColor), a.renderOptions()))
		}
		if a.Cfg.UseTUI {
			a.tui = ui.NewTUIDisplay(a.ProcessLine, a.MarkRead, a.renderOptions())
			sinks = append(sinks, a.tui)
		}
		if a.Cfg.UseWeb {
			web, err := ui.NewWebBridge(a.Cfg.WebAddr, a.ProcessLine, a.MarkRead, a.renderOptions(), a.log.Named("web"))
			if err != nil {
				startErr = err
				return
			}
			a.web = web
			sinks = append(sinks, web)
		}
		a.sink = ui.NewMultiSink(sinks...)

		a.sub = a.Store.Subscribe()
		a.spawn(a.pump)
		a.spawn(func() { a.Sweeper.Run(a.ctx) })
		if a.Journal != nil {
			a.spawn(func() { a.Journal.Run(a.ctx) })
		}
		if a.Diag != nil {
			a.spawnServer("diagnostics", a.Diag.Run)
		}
		if a.web != nil {
			a.spawnServer("web view", a.web.Run)
		}
		if a.tui != nil {
			go func() {
				if err := a.tui.Run(a.ctx); err != nil {
					a.log.Error("tui stopped", zap.Error(err))
				}
				a.requestQuit()
			}()
		}
		if a.Cfg.UseCLI {
			go a.ReadInput(a.in)
		}

		if a.Cfg.Seed > 0 {
			if _, err := a.Composer.Seed(a.Cfg.Seed); err != nil {
				a.log.Warn("seed failed", zap.Error(err))
			}
		}
		a.log.Info("star map running",
			zap.Duration("sweep_interval", a.Sweeper.Interval()),
			zap.Bool("tui", a.Cfg.UseTUI),
			zap.Bool("web", a.Cfg.UseWeb))
		a.sink.ShowSystem("type /help for commands")
	})
	return startErr
}

// Shutdown stops background goroutines and releases resources. The store
// itself is left as it was.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.cancel()
		a.Sweeper.Close()
		if a.sub != nil {
			a.sub.Close()
		}
		if a.web != nil {
			a.web.Close()
		}
		a.wg.Wait()
		if a.Journal != nil {
			if err := a.Journal.Close(); err != nil {
				a.log.Warn("journal close", zap.Error(err))
			}
		}
		a.requestQuit()
		_ = a.log.Sync()
	})
}

func (a *App) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

func (a *App) spawnServer(name string, run func(context.Context) error) {
	a.spawn(func() {
		if err := run(a.ctx); err != nil {
			a.log.Error(name+" stopped", zap.Error(err))
		}
	})
}

// pump forwards every store snapshot to the renderers, filtered.
func (a *App) pump() {
	for snapshot := range a.sub.C() {
		a.sink.ShowSignals(a.currentFilter().Apply(snapshot, a.now()))
	}
}

// WaitForShutdown blocks until SIGINT/SIGTERM or /quit, then stops the app.
func WaitForShutdown(app *App) {
	if app == nil {
		return
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	select {
	case <-sig:
	case <-app.Done():
	}
	app.log.Info("shutting down")
	app.Shutdown()
}
