package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quantum-social/internal/app"
)

func main() {
	cfg := app.DefaultConfig()
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "starmap",
		Short: "Ephemeral signals on a local star map",
		Long: `starmap keeps a live set of short-lived signals in memory.

Text, emoji, audio, image and flash signals fade after their TTL or
when read; WishNet mixes linger for a day. Nothing survives a restart.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Resolve(cmd.Flags(), cfg, configPath); err != nil {
				return err
			}
			return run(cfg)
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	app.BindFlags(flags, cfg)

	rootCmd.AddCommand(journalCmd(cfg, &configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
