package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/syncrete/vaultkit/internal/app"
	"github.com/syncrete/vaultkit/internal/config"
)

// RunServer starts the long-running surfaces: the metrics HTTP server, the
// audit event dispatcher, and (when configured) the periodic encryption
// integrity check. Blocks until receiving SIGINT/SIGTERM or encountering a
// fatal error, then shuts everything down gracefully.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	dispatcher, err := container.AuditDispatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize audit dispatcher: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scheduler, err := container.IntegrityScheduler(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize integrity scheduler: %w", err)
	}

	serverErr := make(chan error, 2)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	go func() {
		if err := dispatcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErr <- fmt.Errorf("audit dispatcher error: %w", err)
		}
	}()

	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start integrity scheduler: %w", err)
		}
	}

	shutdown := func(cause error) error {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()

		var shutdownErrors []error
		if cause != nil {
			shutdownErrors = append(shutdownErrors, cause)
		}

		if scheduler != nil {
			if err := scheduler.Stop(); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("integrity scheduler stop: %w", err))
			}
		}

		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}

		return errors.Join(shutdownErrors...)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return shutdown(nil)
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		cancel()
		return shutdown(err)
	}
}
