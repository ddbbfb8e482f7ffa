// Package config provides configuration loading, validation, and management
// for the CatBot application. It reads an optional YAML file, overlays
// environment variables, fills in defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot/models"
)

// ErrConfiguration is returned when configuration cannot be loaded or is invalid.
var ErrConfiguration = errors.New("configuration error")

// Supported completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config defines the application configuration for all CatBot components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	AI        AIConfig        `mapstructure:"ai"`
	Persona   PersonaConfig   `mapstructure:"persona"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Bot       BotConfig       `mapstructure:"bot"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the Bot API credentials and the router's fixed labels.
type TelegramConfig struct {
	Token              string   `mapstructure:"token"                validate:"required"`
	APIURL             string   `mapstructure:"api_url"              validate:"required,url"`
	MentionHandles     []string `mapstructure:"mention_handles"      validate:"min=1,dive,required"`
	InlineTitle        string   `mapstructure:"inline_title"         validate:"required"`
	InlineThumbnailURL string   `mapstructure:"inline_thumbnail_url" validate:"omitempty,url"`

	// BotInfo is filled from getMe at startup.
	BotInfo *models.User `mapstructure:"-"`
}

// AIConfig selects and configures the upstream model providers.
type AIConfig struct {
	Provider       string        `mapstructure:"provider"        validate:"oneof=openai gemini"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=10m"`
	OpenAI         OpenAIConfig  `mapstructure:"openai"`
	Gemini         GeminiConfig  `mapstructure:"gemini"`
	Retry          RetryConfig   `mapstructure:"retry"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
}

// RetryConfig opts into retries of transient upstream failures. The default of
// one attempt disables them.
type RetryConfig struct {
	MaxAttempts  uint          `mapstructure:"max_attempts"  validate:"min=1,max=10"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"min=0"`
	MaxDelay     time.Duration `mapstructure:"max_delay"     validate:"gtefield=InitialDelay"`
}

// BreakerConfig configures the per-upstream circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures" validate:"min=1"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"min=1s"`
}

// OpenAIConfig configures chat completion, transcription and image generation.
type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"             validate:"required"`
	BaseURL            string `mapstructure:"base_url"            validate:"required,url"`
	Model              string `mapstructure:"model"               validate:"required"`
	TranscriptionModel string `mapstructure:"transcription_model" validate:"required"`
	ImageSize          string `mapstructure:"image_size"          validate:"oneof=256x256 512x512 1024x1024"`
}

// GeminiConfig configures the optional Gemini completion backend.
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"       validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"min=0,max=2"`
}

// PersonaConfig holds the fixed prompt texts injected into the persona proxy.
type PersonaConfig struct {
	SystemMessage     string `mapstructure:"system_message"     validate:"required"`
	CatifyInstruction string `mapstructure:"catify_instruction" validate:"required"`
}

// AudioConfig configures the voice pipeline scratch area and transcoder.
type AudioConfig struct {
	ScratchDir       string        `mapstructure:"scratch_dir"        validate:"required"`
	FFmpegPath       string        `mapstructure:"ffmpeg_path"        validate:"required"`
	MaxDownloadBytes int64         `mapstructure:"max_download_bytes" validate:"gt=0"`
	ScratchMaxAge    time.Duration `mapstructure:"scratch_max_age"    validate:"min=1m"`
}

// BotConfig bounds update processing.
type BotConfig struct {
	MaxConcurrentUpdates int64         `mapstructure:"max_concurrent_updates" validate:"min=1,max=1000"`
	UpdateTimeout        time.Duration `mapstructure:"update_timeout"         validate:"min=1s,max=30m"`
	DrainTimeout         time.Duration `mapstructure:"drain_timeout"          validate:"min=0,max=10m"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds user-facing reply texts.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	Help          string `mapstructure:"help"           validate:"required"`
	ImageReply    string `mapstructure:"image_reply"    validate:"required,contains=%s"`
	UpstreamError string `mapstructure:"upstream_error" validate:"required"`
}

// Validate checks constraints that span several fields.
func (c *Config) Validate() error {
	if c.AI.Provider == ProviderGemini && c.AI.Gemini.APIKey == "" {
		return fmt.Errorf("ai.gemini.api_key is required when ai.provider is %q", ProviderGemini)
	}
	if c.Bot.DrainTimeout > c.Bot.UpdateTimeout*2 {
		return fmt.Errorf("bot.drain_timeout (%s) must not exceed twice bot.update_timeout (%s)", c.Bot.DrainTimeout, c.Bot.UpdateTimeout)
	}
	return nil
}
