package main

import (
	"github.com/spf13/cobra"

	"github.com/mauriciojimenezs/toretto/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "toretto",
		Short:         "Messenger webhook bridge to Watson Conversation",
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().String("config", config.DefaultPath, "Config file path (optional; env TORETTO_* overrides).")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the file named by the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
