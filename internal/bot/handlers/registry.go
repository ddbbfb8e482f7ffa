package handlers

import (
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RegisteredHandler pairs an update matcher with its handler and middleware.
// Matchers in the registry are mutually exclusive, so registration order does
// not affect dispatch.
type RegisteredHandler struct {
	Match      tgbot.MatchFunc
	Handler    tgbot.HandlerFunc
	Middleware []tgbot.Middleware
}

// RegisterAllHandlers returns every router entry keyed by a descriptive name.
// allow decides which senders reach the gated handlers.
func RegisterAllHandlers(deps HandlerDeps, allow AuthorizeFunc) map[string]RegisteredHandler {
	gated := []tgbot.Middleware{AuthGate(deps, allow)}
	me := func() *models.User { return deps.Config.Telegram.BotInfo }

	return map[string]RegisteredHandler{
		"/start": {
			Match:   matchCommand(CommandStart, me),
			Handler: NewStartHandler(deps),
		},
		"/help": {
			Match:   matchCommand(CommandHelp, me),
			Handler: NewHelpHandler(deps),
		},
		"/catify": {
			Match:      matchCommand(CommandCatify, me),
			Handler:    NewCatifyHandler(deps),
			Middleware: gated,
		},
		"/image": {
			Match:      matchCommand(CommandImage, me),
			Handler:    NewImageHandler(deps),
			Middleware: gated,
		},
		"text": {
			Match:      matchPlainText,
			Handler:    NewTextHandler(deps),
			Middleware: gated,
		},
		"voice": {
			Match:      matchVoice,
			Handler:    NewVoiceHandler(deps),
			Middleware: gated,
		},
		"inline": {
			Match:   matchInlineQuery,
			Handler: NewInlineHandler(deps),
		},
	}
}

func matchCommand(name string, me func() *models.User) tgbot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		cmd, ok := parseCommand(update.Message.Text)
		return ok && cmd.Name == name && cmd.addressedTo(me())
	}
}

func matchPlainText(update *models.Update) bool {
	return update.Message != nil && update.Message.Text != "" && !strings.HasPrefix(update.Message.Text, "/")
}

func matchVoice(update *models.Update) bool {
	return update.Message != nil && (update.Message.Voice != nil || update.Message.Audio != nil)
}

func matchInlineQuery(update *models.Update) bool {
	return update.InlineQuery != nil
}
