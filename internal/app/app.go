// Package app manages the lifecycle of the HTTP server and the scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/postbot/internal/config"
)

// Server is the HTTP listener. *fiber.App satisfies it.
type Server interface {
	Listen(addr string) error
	ShutdownWithTimeout(timeout time.Duration) error
}

// Scheduler runs the bot jobs and maintenance tasks.
type Scheduler interface {
	Start() error
	Stop() error
}

// App runs the components and handles graceful shutdown.
type App struct {
	logger    *slog.Logger
	cfg       config.ServerConfig
	server    Server
	scheduler Scheduler
}

// New creates an App from already constructed components.
func New(logger *slog.Logger, cfg config.ServerConfig, server Server, scheduler Scheduler) *App {
	return &App{
		logger:    logger.With("component", "app"),
		cfg:       cfg,
		server:    server,
		scheduler: scheduler,
	}
}

// Run starts all components and blocks until ctx is cancelled or one of
// them fails. Running cycles finish before Run returns.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting postbot...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting HTTP server...", "address", a.cfg.Address)
		if err := a.server.Listen(a.cfg.Address); err != nil {
			a.logger.Error("HTTP server failed", "error", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		a.logger.Info("HTTP server stopped.")

		if gCtx.Err() == nil {
			return fmt.Errorf("http server stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping HTTP server...")
		if err := a.server.ShutdownWithTimeout(a.cfg.ShutdownTimeout); err != nil {
			a.logger.Error("Error shutting down HTTP server", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("Starting scheduler...")
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	a.logger.Info("Postbot running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Postbot stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Postbot stopped gracefully.")
	return nil
}
