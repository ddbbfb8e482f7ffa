package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable derived from a config key,
// e.g. CATBOT_TELEGRAM_TOKEN for telegram.token.
const EnvPrefix = "CATBOT"

// legacyEnv maps config keys to the bare variable names the bot has always honoured.
var legacyEnv = map[string]string{
	"telegram.token":    "BOT_TOKEN",
	"ai.openai.api_key": "OPENAI_API_KEY",
	"ai.openai.model":   "GPT_MODEL",
	"ai.gemini.api_key": "GEMINI_API_KEY",
}

// LoadConfig loads and validates configuration from:
//  1. Default values
//  2. the YAML file at path (optional; a missing file is not an error)
//  3. CATBOT_* and legacy environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("%w: failed to bind %s: %w", ErrConfiguration, key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %w", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return cfg, nil
}

// setDefaults registers defaults for every key so that AutomaticEnv can
// override any of them during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.api_url", DefaultTelegramAPIURL)
	v.SetDefault("telegram.mention_handles", DefaultMentionHandles)
	v.SetDefault("telegram.inline_title", DefaultInlineTitle)
	v.SetDefault("telegram.inline_thumbnail_url", DefaultInlineThumbnailURL)

	v.SetDefault("ai.provider", DefaultAIProvider)
	v.SetDefault("ai.request_timeout", DefaultAIRequestTimeout)
	v.SetDefault("ai.openai.api_key", "")
	v.SetDefault("ai.openai.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("ai.openai.model", DefaultOpenAIModel)
	v.SetDefault("ai.openai.transcription_model", DefaultOpenAITranscriptionModel)
	v.SetDefault("ai.openai.image_size", DefaultOpenAIImageSize)
	v.SetDefault("ai.gemini.api_key", "")
	v.SetDefault("ai.gemini.model", DefaultGeminiModel)
	v.SetDefault("ai.gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("ai.retry.max_attempts", DefaultRetryMaxAttempts)
	v.SetDefault("ai.retry.initial_delay", DefaultRetryInitialDelay)
	v.SetDefault("ai.retry.max_delay", DefaultRetryMaxDelay)
	v.SetDefault("ai.breaker.max_failures", DefaultBreakerMaxFailures)
	v.SetDefault("ai.breaker.open_timeout", DefaultBreakerOpenTimeout)

	v.SetDefault("persona.system_message", DefaultPersonaSystemMessage)
	v.SetDefault("persona.catify_instruction", DefaultPersonaCatifyInstruction)

	v.SetDefault("audio.scratch_dir", DefaultScratchDir())
	v.SetDefault("audio.ffmpeg_path", DefaultFFmpegPath)
	v.SetDefault("audio.max_download_bytes", DefaultMaxDownloadBytes)
	v.SetDefault("audio.scratch_max_age", DefaultScratchMaxAge)

	v.SetDefault("bot.max_concurrent_updates", DefaultBotMaxConcurrentUpdates)
	v.SetDefault("bot.update_timeout", DefaultBotUpdateTimeout)
	v.SetDefault("bot.drain_timeout", DefaultBotDrainTimeout)

	v.SetDefault("scheduler.tasks", map[string]any{
		ScratchCleanupTask: map[string]any{
			"enabled":  true,
			"schedule": DefaultScratchCleanupSchedule,
		},
	})

	v.SetDefault("messages.welcome", DefaultMsgWelcome)
	v.SetDefault("messages.help", DefaultMsgHelp)
	v.SetDefault("messages.image_reply", DefaultMsgImageReply)
	v.SetDefault("messages.upstream_error", DefaultMsgUpstreamError)
}
