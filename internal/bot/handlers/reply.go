package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"github.com/edgard/catbot/internal/persona"
)

const sendMessageTimeout = 10 * time.Second

// sendText sends text to chatID and logs the outcome.
func sendText(ctx context.Context, m Messenger, log *slog.Logger, chatID int64, text string) {
	if _, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
		return
	}
	log.DebugContext(ctx, "Sent message", "chat_id", chatID)
}

// reportFailure logs err and, for upstream failures, tells the chat. The
// notice is sent even if the update deadline has already passed.
func reportFailure(ctx context.Context, m Messenger, deps HandlerDeps, log *slog.Logger, chatID int64, msg string, err error) {
	log.ErrorContext(ctx, msg, "error", err, "chat_id", chatID)
	if !errors.Is(err, persona.ErrUpstream) {
		return
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendMessageTimeout)
	defer cancel()
	sendText(nctx, m, log, chatID, deps.Config.Messages.UpstreamError)
}
