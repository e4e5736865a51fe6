package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ingyamilmolinar/wakeaudio/internal/config"
)

func newInitCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long:  `Creates ` + config.DefaultPath + ` (or the path given with --config) with default settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath
			if *cfgFile != "" {
				path = *cfgFile
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return fmt.Errorf("creating config file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}
