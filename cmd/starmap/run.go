package main

import (
	"quantum-social/internal/app"
	"quantum-social/internal/logging"
)

func run(cfg *app.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	a, err := app.NewApp(cfg, logger)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		a.Shutdown()
		return err
	}
	app.WaitForShutdown(a)
	return nil
}
