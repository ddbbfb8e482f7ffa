package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewCatifyHandler returns a handler for the /catify command.
func NewCatifyHandler(deps HandlerDeps) bot.HandlerFunc {
	return catifyHandler{deps}.Handle
}

type catifyHandler struct {
	deps HandlerDeps
}

func (h catifyHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h catifyHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "catify")

	if update.Message == nil {
		log.WarnContext(ctx, "Catify handler received update with nil message", "update_id", update.ID, "error", ErrMalformedUpdate)
		return
	}
	msg := update.Message

	cmd, _ := parseCommand(msg.Text)
	log.InfoContext(ctx, "Handling /catify command", "chat_id", msg.Chat.ID, "payload_len", len(cmd.Payload))

	answer, err := h.deps.Persona.Catify(ctx, cmd.Payload)
	if err != nil {
		reportFailure(ctx, m, h.deps, log, msg.Chat.ID, "Failed to catify text", err)
		return
	}

	sendText(ctx, m, log, msg.Chat.ID, answer)
}
