package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/career-assistant/internal/observability"
	"github.com/jonathan/career-assistant/internal/server"
	"github.com/jonathan/career-assistant/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server that exposes the chat endpoints and per-user session management.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingOptions{Enabled: cfg.Tracing.Enabled})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(cmd.Context()); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer a.Close() //nolint:errcheck

	rl := cfg.Server.RateLimit
	srv := server.New(server.Config{
		Port: cfg.Server.Port,
		RateLimit: ratelimit.Config{
			Enabled: rl.Enabled,
			Limit:   rl.Limit,
			Window:  rl.Window,
			Burst:   rl.Burst,
		},
	}, a.coord, logger)
	return srv.Start(ctx)
}
