// Package persona implements the cat persona facade in front of the upstream
// model APIs. Every chat completion it issues starts with the persona system
// message; transcripts are catified before they are returned.
package persona

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrUpstream wraps any failure of an upstream API call.
var ErrUpstream = errors.New("upstream error")

// Role tags a message in a completion request.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    Role
	Content string
}

// Completer sends an ordered conversation to a chat-completion API and
// returns the content of the first choice.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Transcriber converts an audio stream into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// ImageGenerator creates an image for a prompt and returns its URL.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, size string) (string, error)
}

// Proxy is the persona facade. It holds no per-request state and is safe for
// concurrent use.
type Proxy struct {
	persona     Message
	instruction Message
	completer   Completer
	transcriber Transcriber
	images      ImageGenerator
	log         *slog.Logger
}

// New creates a Proxy. systemMessage becomes the first message of every
// completion; catifyInstruction precedes the payload in Catify requests.
func New(systemMessage, catifyInstruction string, completer Completer, transcriber Transcriber, images ImageGenerator, log *slog.Logger) (*Proxy, error) {
	if systemMessage == "" {
		return nil, errors.New("persona system message is required")
	}
	if catifyInstruction == "" {
		return nil, errors.New("catify instruction is required")
	}
	if completer == nil || transcriber == nil || images == nil {
		return nil, errors.New("completer, transcriber and image generator are required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Proxy{
		persona:     Message{Role: RoleSystem, Content: systemMessage},
		instruction: Message{Role: RoleUser, Content: catifyInstruction},
		completer:   completer,
		transcriber: transcriber,
		images:      images,
		log:         log.With("component", "persona"),
	}, nil
}

// Reply answers text in the persona's voice: [persona, user(text)].
func (p *Proxy) Reply(ctx context.Context, text string) (string, error) {
	p.log.DebugContext(ctx, "Reply called", "text", text)

	answer, err := p.complete(ctx, []Message{
		p.persona,
		{Role: RoleUser, Content: text},
	})
	if err != nil {
		return "", err
	}

	p.log.DebugContext(ctx, "Reply returning", "answer", answer)
	return answer, nil
}

// Catify rewrites text in the persona's voice. The instruction and the payload
// are sent as two separate user messages: [persona, user(instruction), user(text)].
func (p *Proxy) Catify(ctx context.Context, text string) (string, error) {
	p.log.DebugContext(ctx, "Catify called", "text", text)

	answer, err := p.complete(ctx, []Message{
		p.persona,
		p.instruction,
		{Role: RoleUser, Content: text},
	})
	if err != nil {
		return "", err
	}

	p.log.DebugContext(ctx, "Catify returning", "answer", answer)
	return answer, nil
}

// Transcribe converts audio to text and catifies the transcript. Catify is not
// attempted when transcription fails.
func (p *Proxy) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	transcript, err := p.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		p.log.ErrorContext(ctx, "Transcription failed", "filename", filename, "error", err)
		return "", fmt.Errorf("%w: transcription: %w", ErrUpstream, err)
	}

	p.log.DebugContext(ctx, "Transcription received", "filename", filename, "transcript", transcript)
	return p.Catify(ctx, transcript)
}

// GenerateImage returns the URL of an image generated for prompt. The prompt is
// passed through unchanged.
func (p *Proxy) GenerateImage(ctx context.Context, prompt, size string) (string, error) {
	p.log.InfoContext(ctx, "Generate image called", "prompt", prompt, "size", size)

	url, err := p.images.GenerateImage(ctx, prompt, size)
	if err != nil {
		p.log.ErrorContext(ctx, "Image generation failed", "error", err)
		return "", fmt.Errorf("%w: image generation: %w", ErrUpstream, err)
	}

	p.log.InfoContext(ctx, "Generated image", "url", url)
	return url, nil
}

func (p *Proxy) complete(ctx context.Context, messages []Message) (string, error) {
	answer, err := p.completer.Complete(ctx, messages)
	if err != nil {
		p.log.ErrorContext(ctx, "Chat completion failed", "message_count", len(messages), "error", err)
		return "", fmt.Errorf("%w: chat completion: %w", ErrUpstream, err)
	}
	return answer, nil
}
