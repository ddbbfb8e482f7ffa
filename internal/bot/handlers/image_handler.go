package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewImageHandler returns a handler for the /image command. The whole message
// text, command token included, is used as the prompt.
func NewImageHandler(deps HandlerDeps) bot.HandlerFunc {
	return imageHandler{deps}.Handle
}

type imageHandler struct {
	deps HandlerDeps
}

func (h imageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h imageHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "image")

	if update.Message == nil {
		log.WarnContext(ctx, "Image handler received update with nil message", "update_id", update.ID, "error", ErrMalformedUpdate)
		return
	}
	msg := update.Message

	log.InfoContext(ctx, "Handling /image command", "chat_id", msg.Chat.ID)
	url, err := h.deps.Persona.GenerateImage(ctx, msg.Text, h.deps.Config.AI.OpenAI.ImageSize)
	if err != nil {
		reportFailure(ctx, m, h.deps, log, msg.Chat.ID, "Failed to generate image", err)
		return
	}

	sendText(ctx, m, log, msg.Chat.ID, fmt.Sprintf(h.deps.Config.Messages.ImageReply, url))
}
