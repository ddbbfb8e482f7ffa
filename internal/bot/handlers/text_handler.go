package handlers

import (
	"context"
	"regexp"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTextHandler returns a handler for plain text messages. Only messages that
// mention one of the configured handles are answered.
func NewTextHandler(deps HandlerDeps) bot.HandlerFunc {
	return textHandler{deps: deps, mention: mentionPattern(deps.Config.Telegram.MentionHandles)}.Handle
}

type textHandler struct {
	deps    HandlerDeps
	mention *regexp.Regexp
}

func (h textHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h textHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "text")

	if update.Message == nil {
		log.WarnContext(ctx, "Text handler received update with nil message", "update_id", update.ID, "error", ErrMalformedUpdate)
		return
	}
	msg := update.Message

	if h.mention == nil || !h.mention.MatchString(msg.Text) {
		log.DebugContext(ctx, "Ignoring message without mention", "chat_id", msg.Chat.ID, "message_id", msg.ID)
		return
	}

	log.InfoContext(ctx, "Handling mention", "chat_id", msg.Chat.ID, "message_id", msg.ID)
	answer, err := h.deps.Persona.Reply(ctx, msg.Text)
	if err != nil {
		reportFailure(ctx, m, h.deps, log, msg.Chat.ID, "Failed to generate reply", err)
		return
	}

	sendText(ctx, m, log, msg.Chat.ID, answer)
}
