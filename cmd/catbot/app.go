package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/catbot/internal/config"
	"github.com/edgard/catbot/internal/gemini"
	"github.com/edgard/catbot/internal/logger"
	"github.com/edgard/catbot/internal/openai"
	"github.com/edgard/catbot/internal/persona"
	"github.com/edgard/catbot/internal/resilience"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	persona *persona.Proxy
}

// setup loads configuration, installs the logger and builds the persona proxy.
func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return nil, err
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	oa, err := openai.NewClient(cfg.AI.OpenAI, cfg.AI.RequestTimeout, log)
	if err != nil {
		log.Error("Failed to initialize OpenAI client", "error", err)
		return nil, err
	}

	completer, err := newCompleter(ctx, cfg, oa, log)
	if err != nil {
		log.Error("Failed to initialize completion provider", "provider", cfg.AI.Provider, "error", err)
		return nil, err
	}

	p, err := persona.New(
		cfg.Persona.SystemMessage,
		cfg.Persona.CatifyInstruction,
		completer,
		resilience.Transcriber{Next: oa, Guard: newGuard(cfg.AI, "openai_transcription", openai.IsRetryable, log)},
		resilience.ImageGenerator{Next: oa, Guard: newGuard(cfg.AI, "openai_images", openai.IsRetryable, log)},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize persona", "error", err)
		return nil, err
	}

	return &app{cfg: cfg, log: log, persona: p}, nil
}

// newCompleter selects the chat completion backend. Transcription and images
// always go through OpenAI.
func newCompleter(ctx context.Context, cfg *config.Config, oa *openai.Client, log *slog.Logger) (persona.Completer, error) {
	switch cfg.AI.Provider {
	case config.ProviderOpenAI, "":
		return resilience.Completer{Next: oa, Guard: newGuard(cfg.AI, "openai_chat", openai.IsRetryable, log)}, nil
	case config.ProviderGemini:
		gm, err := gemini.NewClient(ctx, cfg.AI.Gemini, "", cfg.AI.RequestTimeout, log)
		if err != nil {
			return nil, err
		}
		return resilience.Completer{Next: gm, Guard: newGuard(cfg.AI, "gemini_chat", gemini.IsRetryable, log)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown ai.provider %q", config.ErrConfiguration, cfg.AI.Provider)
	}
}

// newGuard builds the guard for one upstream endpoint. Endpoints never share a
// breaker.
func newGuard(cfg config.AIConfig, name string, retryable func(error) bool, log *slog.Logger) *resilience.Guard {
	return resilience.NewGuard(resilience.Config{
		Name:         name,
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		MaxFailures:  cfg.Breaker.MaxFailures,
		OpenTimeout:  cfg.Breaker.OpenTimeout,
		Retryable:    retryable,
	}, log)
}
