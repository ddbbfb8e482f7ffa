package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for configuration
const (
	// Log defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	// Telegram defaults
	DefaultTelegramAPIURL     = "https://api.telegram.org"
	DefaultInlineTitle        = "Ask CatGPT"
	DefaultInlineThumbnailURL = "https://user-images.githubusercontent.com/13839523/227260331-764d699a-e99f-4920-9b03-6b2bae6e0fda.png"

	// AI defaults
	DefaultAIProvider               = ProviderOpenAI
	DefaultAIRequestTimeout         = 2 * time.Minute
	DefaultOpenAIBaseURL            = "https://api.openai.com/v1"
	DefaultOpenAIModel              = "gpt-4o-mini"
	DefaultOpenAITranscriptionModel = "whisper-1"
	DefaultOpenAIImageSize          = "512x512"
	DefaultGeminiModel              = "gemini-2.0-flash"
	DefaultGeminiTemperature        = 1.0
	DefaultRetryMaxAttempts         = 1
	DefaultRetryInitialDelay        = 500 * time.Millisecond
	DefaultRetryMaxDelay            = 5 * time.Second
	DefaultBreakerMaxFailures       = 5
	DefaultBreakerOpenTimeout       = 30 * time.Second

	// Persona defaults
	DefaultPersonaSystemMessage     = "You mimick a cat and try to rephrase everything using cat-related analogies and puns"
	DefaultPersonaCatifyInstruction = "Please turn the following text into a cat text."

	// Audio defaults
	DefaultFFmpegPath       = "ffmpeg"
	DefaultMaxDownloadBytes = 20 * 1024 * 1024 // Bot API getFile limit
	DefaultScratchMaxAge    = 15 * time.Minute

	// Bot defaults
	DefaultBotMaxConcurrentUpdates = 32
	DefaultBotUpdateTimeout        = 3 * time.Minute
	DefaultBotDrainTimeout         = 30 * time.Second

	// Scheduler defaults
	ScratchCleanupTask            = "scratch_cleanup"
	DefaultScratchCleanupSchedule = "*/10 * * * *"

	// Message defaults
	DefaultMsgWelcome = "Hello there, I'm a cool cat AI assistant, here to help you out! I'm not lion when I say that" +
		" I'm ready to pounce on any task you may have for me!"
	DefaultMsgHelp          = "Help me!"
	DefaultMsgImageReply    = "Look at this image: %s"
	DefaultMsgUpstreamError = "Hiss! My whiskers got tangled talking to the cat brain. Please try again later."
)

// DefaultMentionHandles are the bot handles the text handler listens for.
var DefaultMentionHandles = []string{"CatGPT", "Jinxthecatbot"}

// DefaultScratchDir returns the scratch directory used for voice files.
func DefaultScratchDir() string {
	return filepath.Join(os.TempDir(), "catbot")
}
