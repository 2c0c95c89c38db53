package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/accredit/internal/config"
	"github.com/dwsmith1983/accredit/internal/server"
	"github.com/dwsmith1983/accredit/internal/server/handlers"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the accredit HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dir)
		},
	}
	cmd.Flags().StringVar(&dir, "config-dir", ".", "Directory containing accredit.yaml")
	return cmd
}

func runServe(dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	if err := resolveSecrets(ctx, cfg); err != nil {
		return fmt.Errorf("resolving secrets: %w", err)
	}

	logger := slog.Default()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	arch, archDest, err := a.newArchiver(ctx, logger)
	if err != nil {
		a.Close(ctx)
		return err
	}
	dog, err := a.newWatchdog(logger)
	if err != nil {
		if archDest != nil {
			_ = archDest.Stop(ctx)
		}
		a.Close(ctx)
		return err
	}
	if arch != nil {
		arch.Start(ctx)
	}
	if dog != nil {
		dog.Start(ctx)
	}
	stopBackground := func(ctx context.Context) {
		if dog != nil {
			dog.Stop(ctx)
		}
		if arch != nil {
			arch.Stop(ctx)
			_ = archDest.Stop(ctx)
		}
	}

	srv := server.New(cfg.Server.Addr, handlers.Deps{
		Provider:     a.prov,
		Projections:  a.set,
		Orchestrator: a.orch,
		Flattener:    a.flat,
	}, cfg.Server.APIKey, cfg.Server.MaxRequestBody)

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopBackground(ctx)
		a.Close(ctx)
		return err
	case sig := <-sigCh:
		color.Yellow("\nReceived %s, shutting down...", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		stopBackground(shutdownCtx)
		a.Close(shutdownCtx)
		color.Green("Server stopped gracefully")
		return nil
	}
}
