// Package openai implements the persona upstream ports on top of the OpenAI API
// (or any OpenAI-compatible gateway): chat completion, audio transcription and
// image generation.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/edgard/catbot/internal/config"
	"github.com/edgard/catbot/internal/persona"
)

var (
	// ErrNoChoices is returned when a completion response carries no choices.
	ErrNoChoices = errors.New("completion returned no choices")
	// ErrNoImages is returned when an image response carries no results.
	ErrNoImages = errors.New("image generation returned no results")
)

// Client talks to the OpenAI API. It satisfies persona.Completer,
// persona.Transcriber and persona.ImageGenerator.
type Client struct {
	api                *gopenai.Client
	model              string
	transcriptionModel string
	timeout            time.Duration
	log                *slog.Logger
}

var (
	_ persona.Completer      = (*Client)(nil)
	_ persona.Transcriber    = (*Client)(nil)
	_ persona.ImageGenerator = (*Client)(nil)
)

// NewClient creates an OpenAI client from configuration. Every call is bounded by timeout.
func NewClient(cfg config.OpenAIConfig, timeout time.Duration, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}
	if log == nil {
		log = slog.Default()
	}

	apiCfg := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	logger := log.With("component", "openai_client")
	logger.Info("OpenAI client initialized", "model", cfg.Model, "transcription_model", cfg.TranscriptionModel, "base_url", apiCfg.BaseURL)

	return &Client{
		api:                gopenai.NewClientWithConfig(apiCfg),
		model:              cfg.Model,
		transcriptionModel: cfg.TranscriptionModel,
		timeout:            timeout,
		log:                logger,
	}, nil
}

// Complete sends the conversation to the chat completion endpoint and returns
// the first choice's content verbatim.
func (c *Client) Complete(ctx context.Context, messages []persona.Message) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := gopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(messages),
	}

	c.log.DebugContext(ctx, "Requesting chat completion", "model", c.model, "message_count", len(req.Messages))
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	c.log.DebugContext(ctx, "Chat completion received", "choices", len(resp.Choices), "total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

// Transcribe uploads the audio stream to the transcription endpoint. filename
// is sent as the multipart file name and lets the API infer the audio format.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.log.DebugContext(ctx, "Requesting transcription", "model", c.transcriptionModel, "filename", filename)
	resp, err := c.api.CreateTranscription(ctx, gopenai.AudioRequest{
		Model:    c.transcriptionModel,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	return resp.Text, nil
}

// GenerateImage requests a single image for prompt and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.log.DebugContext(ctx, "Requesting image generation", "size", size)
	resp, err := c.api.CreateImage(ctx, gopenai.ImageRequest{
		Prompt:         prompt,
		Model:          gopenai.CreateImageModelDallE2,
		N:              1,
		Size:           size,
		ResponseFormat: gopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("image generation request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", ErrNoImages
	}

	return resp.Data[0].URL, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func toChatMessages(messages []persona.Message) []gopenai.ChatCompletionMessage {
	out := make([]gopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := gopenai.ChatMessageRoleUser
		if m.Role == persona.RoleSystem {
			role = gopenai.ChatMessageRoleSystem
		}
		out = append(out, gopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// IsRetryable reports whether err is worth another attempt: rate limiting,
// server errors, transport failures and empty results.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNoChoices) || errors.Is(err, ErrNoImages) {
		return true
	}

	var apiErr *gopenai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *gopenai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
