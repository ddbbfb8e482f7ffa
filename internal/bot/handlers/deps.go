package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/catbot/internal/audio"
	"github.com/edgard/catbot/internal/config"
)

// ErrMalformedUpdate marks an update that lacks the fields its handler needs.
var ErrMalformedUpdate = errors.New("malformed update")

// Persona is the subset of persona.Proxy the handlers call.
type Persona interface {
	Reply(ctx context.Context, text string) (string, error)
	Catify(ctx context.Context, text string) (string, error)
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
	GenerateImage(ctx context.Context, prompt, size string) (string, error)
}

// Messenger is the part of the Telegram client used by handlers. *bot.Bot satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	AnswerInlineQuery(ctx context.Context, params *bot.AnswerInlineQueryParams) (bool, error)
}

var _ Messenger = (*bot.Bot)(nil)

// HandlerDeps provides dependencies for Telegram update handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Persona    Persona
	Transcoder audio.Transcoder
	Files      *FileDownloader
}
