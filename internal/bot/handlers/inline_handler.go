package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewInlineHandler returns a handler for inline queries. It echoes the query
// back as a single article; empty queries get no answer.
func NewInlineHandler(deps HandlerDeps) bot.HandlerFunc {
	return inlineHandler{deps}.Handle
}

type inlineHandler struct {
	deps HandlerDeps
}

func (h inlineHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h inlineHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "inline")

	q := update.InlineQuery
	if q == nil {
		log.WarnContext(ctx, "Inline handler received update without inline query", "update_id", update.ID, "error", ErrMalformedUpdate)
		return
	}
	if q.Query == "" {
		log.DebugContext(ctx, "Ignoring empty inline query", "inline_query_id", q.ID)
		return
	}

	tg := h.deps.Config.Telegram
	results := []models.InlineQueryResult{
		&models.InlineQueryResultArticle{
			ID:                  q.Query,
			Title:               tg.InlineTitle,
			InputMessageContent: &models.InputTextMessageContent{MessageText: q.Query},
			Description:         q.Query,
			ThumbnailURL:        tg.InlineThumbnailURL,
		},
	}

	if _, err := m.AnswerInlineQuery(ctx, &bot.AnswerInlineQueryParams{InlineQueryID: q.ID, Results: results}); err != nil {
		log.ErrorContext(ctx, "Failed to answer inline query", "error", err, "inline_query_id", q.ID)
		return
	}
	log.InfoContext(ctx, "Answered inline query", "inline_query_id", q.ID)
}
