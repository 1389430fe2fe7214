package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quantum-social/internal/app"
	"quantum-social/internal/crypto"
	"quantum-social/internal/journal"
	"quantum-social/internal/logging"
	"quantum-social/internal/signals"
)

func journalCmd(cfg *app.Config, configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print recent lifecycle journal entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Resolve(cmd.Flags(), cfg, *configPath); err != nil {
				return err
			}
			if cfg.JournalDB == "" {
				return errors.New("no journal configured, pass --journal-db")
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
			if err != nil {
				return err
			}
			box, err := crypto.NewBox(cfg.JournalSecret)
			if err != nil {
				return err
			}
			j, err := journal.Open(cfg.JournalDB, box, logger)
			if err != nil {
				return err
			}
			defer j.Close()
			entries, err := j.Recent(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i := len(entries) - 1; i >= 0; i-- {
				e := entries[i]
				fmt.Fprintf(out, "#%d %s %-9s live=%d\n", e.Seq, e.At.Format("2006-01-02 15:04:05.000"), e.Kind, e.Live)
				for _, sig := range e.Signals {
					fmt.Fprintf(out, "    %s %s %s\n", sig.ID, sig.Kind(), signals.Summary(sig))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to print")
	return cmd
}
