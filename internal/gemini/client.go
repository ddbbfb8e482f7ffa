// Package gemini implements persona.Completer with Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/catbot/internal/config"
	"github.com/edgard/catbot/internal/persona"
)

// ErrEmptyResponse is returned when Gemini answers without any text.
var ErrEmptyResponse = errors.New("gemini returned no content")

// Client is a Gemini-backed persona.Completer.
type Client struct {
	models  *genai.Models
	model   string
	base    genai.GenerateContentConfig
	timeout time.Duration
	log     *slog.Logger
}

var _ persona.Completer = (*Client)(nil)

// NewClient creates a Gemini completer. baseURL overrides the API endpoint when non-empty.
func NewClient(ctx context.Context, cfg config.GeminiConfig, baseURL string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if log == nil {
		log = slog.Default()
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.Model)

	return &Client{
		models:  gi.Models,
		model:   cfg.Model,
		base:    genai.GenerateContentConfig{Temperature: &temperature},
		timeout: timeout,
		log:     logger,
	}, nil
}

// Complete maps the conversation onto Gemini contents and returns the answer text.
func (c *Client) Complete(ctx context.Context, messages []persona.Message) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents, cfg := buildRequest(messages, c.base)
	c.log.DebugContext(ctx, "Requesting Gemini completion", "model", c.model, "content_count", len(contents))

	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	return extractText(resp)
}

// buildRequest moves system messages into SystemInstruction and keeps every
// user message as its own turn, in order.
func buildRequest(messages []persona.Message, base genai.GenerateContentConfig) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := base
	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		if m.Role == persona.RoleSystem {
			system = append(system, &genai.Part{Text: m.Content})
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}

	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: system}
	}
	return contents, &cfg
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(fb.BlockReason)
		if fb.BlockReasonMessage != "" {
			reason = fb.BlockReasonMessage
		}
		return "", fmt.Errorf("gemini request blocked: %s", reason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// IsRetryable reports whether err is worth another attempt: rate limiting,
// server errors, transport failures and empty answers.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return retryableStatus(apiErrPtr.Code)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
