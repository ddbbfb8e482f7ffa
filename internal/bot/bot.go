// Package bot implements the bot lifecycle: the Telegram listener, the
// maintenance scheduler, and the drain of in-flight updates on shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Listener receives updates until ctx is cancelled. *bot.Bot satisfies it.
type Listener interface {
	Start(ctx context.Context)
}

// Bot owns the running components and their shutdown order.
type Bot struct {
	logger       *slog.Logger
	listener     Listener
	scheduler    *Scheduler
	inflight     *semaphore.Weighted
	capacity     int64
	drainTimeout time.Duration
}

// NewBot creates the orchestrator. inflight must be the semaphore used by the
// update limit middleware and capacity its total weight.
func NewBot(logger *slog.Logger, listener Listener, scheduler *Scheduler, inflight *semaphore.Weighted, capacity int64, drainTimeout time.Duration) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:       logger.With("component", "bot_orchestrator"),
		listener:     listener,
		scheduler:    scheduler,
		inflight:     inflight,
		capacity:     capacity,
		drainTimeout: drainTimeout,
	}
}

// Run starts the listener and scheduler and blocks until ctx is cancelled or a
// component fails. In-flight updates are then given up to the drain timeout.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")
		b.listener.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	if b.scheduler != nil {
		g.Go(func() error {
			b.logger.Info("Starting scheduler...")
			if err := b.scheduler.Start(); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	b.drain()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

// drain waits for in-flight updates by acquiring the whole semaphore. A zero
// drain timeout skips the wait.
func (b *Bot) drain() {
	if b.inflight == nil || b.capacity <= 0 || b.drainTimeout <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.drainTimeout)
	defer cancel()

	b.logger.Info("Draining in-flight updates...", "timeout", b.drainTimeout)
	if err := b.inflight.Acquire(ctx, b.capacity); err != nil {
		b.logger.Warn("Drain timed out, abandoning in-flight updates", "timeout", b.drainTimeout)
		return
	}
	b.inflight.Release(b.capacity)
	b.logger.Info("All in-flight updates finished.")
}
