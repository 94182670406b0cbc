package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/problem-browser/internal/api"
	"github.com/terra-clan/problem-browser/internal/catalog"
	"github.com/terra-clan/problem-browser/internal/cleanup"
	"github.com/terra-clan/problem-browser/internal/session"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.serve(ctx)
		},
	}
}

// serve runs the service until ctx is cancelled
func (a *App) serve(ctx context.Context) error {
	cfg := a.Config

	slog.Info("starting problem-browser",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"progress_backend", cfg.Progress.Backend,
	)

	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	defer initCancel()

	store, err := a.openProgress(initCtx)
	if err != nil {
		return fmt.Errorf("failed to open progress storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("progress storage close error", "error", err)
		}
	}()

	cat := catalog.New(a.loader())
	sessions := session.NewManager(cat, store, cfg.Sessions.IdleTTL)

	// The first fetch cycle runs in the background; the API reports the
	// loading state until it lands.
	go func() {
		if err := cat.Refresh(ctx); err != nil {
			slog.Warn("initial catalog load failed", "error", err)
		}
	}()

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	cleaner := cleanup.NewCleaner(sessions, cfg.Sessions.CleanupInterval)
	cleaner.Start(workerCtx)

	server := api.NewServer(cfg.Server, cat, store, sessions, a.presets())
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down gracefully...")

	cancelWorkers()
	<-cleaner.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("problem-browser stopped")
	return nil
}
