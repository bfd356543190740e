package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mauriciojimenezs/toretto/internal/session"
	"github.com/mauriciojimenezs/toretto/internal/storage"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear stored conversation state",
	}

	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionClearCmd())
	return cmd
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <sender-id>",
		Short: "Print the stored state of a sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSessions(cmd, func(s *session.Store) error {
				state, err := s.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(state, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			})
		},
	}
}

func newSessionClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <sender-id>",
		Short: "Delete the stored state of a sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSessions(cmd, func(s *session.Store) error {
				if err := s.Clear(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", args[0])
				return err
			})
		},
	}
}

// withSessions opens the configured session store for the duration of fn.
func withSessions(cmd *cobra.Command, fn func(*session.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return err
	}

	kv, err := storage.Open(cfg.Session)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("close session store", slog.String("error", err.Error()))
		}
	}()

	return fn(session.New(kv, cfg.Session.TTL, logger))
}
