// Package bot wires the long-running components together and manages their
// lifecycle: the REST server, the optional Telegram listener and the scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Orchestrator runs every component until the context is cancelled or one
// of them fails.
type Orchestrator struct {
	logger    *slog.Logger
	server    *http.Server
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewOrchestrator builds an orchestrator. tgBot may be nil when the Telegram
// front-end is disabled.
func NewOrchestrator(logger *slog.Logger, server *http.Server, tgBot *tgbot.Bot, scheduler *Scheduler) *Orchestrator {
	return &Orchestrator{
		logger:    logger.With("component", "orchestrator"),
		server:    server,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts all components and blocks until they have stopped.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("Starting orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		o.logger.Info("Starting HTTP server", "addr", o.server.Addr)
		if err := o.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := o.server.Shutdown(shutdownCtx); err != nil {
			o.logger.Error("HTTP server shutdown failed", "error", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
		o.logger.Info("HTTP server stopped")
		return nil
	})

	if o.tgBot != nil {
		g.Go(func() error {
			o.logger.Info("Starting Telegram bot listener...")
			o.tgBot.Start(gCtx)
			o.logger.Info("Telegram bot listener stopped")

			if gCtx.Err() == nil {
				return errors.New("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	if o.scheduler != nil {
		g.Go(func() error {
			if _, err := o.scheduler.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			if err := o.scheduler.Stop(); err != nil {
				o.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		o.logger.Error("Orchestrator stopped due to error", "error", err)
		return err
	}

	o.logger.Info("Orchestrator stopped gracefully")
	return nil
}
