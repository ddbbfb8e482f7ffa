package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/semaphore"

	"github.com/edgard/catbot/internal/audio"
	"github.com/edgard/catbot/internal/bot"
	"github.com/edgard/catbot/internal/bot/handlers"
	"github.com/edgard/catbot/internal/bot/tasks"
	"github.com/edgard/catbot/internal/logger"
	"github.com/edgard/catbot/internal/telegram"
)

// runServe wires the Telegram client, router and scheduler and runs until ctx
// is cancelled.
func runServe(ctx context.Context, configPath string) error {
	a, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	cfg, log := a.cfg, a.log

	if err := os.MkdirAll(cfg.Audio.ScratchDir, 0o700); err != nil {
		log.Error("Failed to create scratch dir", "path", cfg.Audio.ScratchDir, "error", err)
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}

	hDeps := handlers.HandlerDeps{
		Logger:     log,
		Config:     cfg,
		Persona:    a.persona,
		Transcoder: &audio.FFmpeg{Path: cfg.Audio.FFmpegPath, Logger: log.With("component", "ffmpeg")},
		Files:      handlers.NewFileDownloader(cfg.Telegram.APIURL, cfg.Telegram.Token, cfg.Audio.MaxDownloadBytes),
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Config: cfg,
	}

	inflight := semaphore.NewWeighted(cfg.Bot.MaxConcurrentUpdates)
	botOpts := []tgbot.Option{
		tgbot.WithServerURL(cfg.Telegram.APIURL),
		tgbot.WithMiddlewares(
			logger.Middleware(log),
			handlers.Limit(inflight, cfg.Bot.UpdateTimeout, log),
		),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(log)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return err
	}

	cfg.Telegram.BotInfo, err = telegram.FetchIdentity(ctx, tg, log)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return err
	}

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllHandlers(hDeps, handlers.AllowAll)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return err
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return err
	}
	orchestrator := bot.NewBot(log, tg, sched, inflight, cfg.Bot.MaxConcurrentUpdates, cfg.Bot.DrainTimeout)

	log.Info("Starting bot...", "bot_username", cfg.Telegram.BotInfo.Username, "provider", cfg.AI.Provider)
	runErr := orchestrator.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return runErr
	}

	log.Info("Bot stopped gracefully.")
	return nil
}
