package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mauriciojimenezs/toretto/pkg/bridge"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Messenger webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, err := newLogger(os.Stdout, cfg.Log.Level)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			b, err := bridge.New(bridge.WithConfig(cfg), bridge.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("create bridge: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := b.Start(ctx); err != nil {
				return fmt.Errorf("start bridge: %w", err)
			}

			var serveErr error
			select {
			case <-ctx.Done():
				logger.Info("shutdown signal received, stopping bridge")
			case err, ok := <-b.Err():
				if ok {
					serveErr = err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := b.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown error", slog.String("error", err.Error()))
				if serveErr == nil {
					serveErr = err
				}
			}
			return serveErr
		},
	}

	cmd.Flags().Int("port", 0, "Listen port (overrides server.port).")
	return cmd
}
