package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDefaultHandler returns the fallback for updates no router entry matches,
// such as unknown commands. They are logged and ignored.
func NewDefaultHandler(logger *slog.Logger) bot.HandlerFunc {
	log := logger.With("handler", "default")
	return func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		if update.Message != nil {
			if cmd, ok := parseCommand(update.Message.Text); ok {
				log.DebugContext(ctx, "Ignoring unhandled command", "command", cmd.Name, "target", cmd.Target, "chat_id", update.Message.Chat.ID)
				return
			}
		}
		log.DebugContext(ctx, "Ignoring unhandled update", "update_id", update.ID)
	}
}
