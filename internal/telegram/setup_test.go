package telegram

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/catbot/internal/bot/handlers"
)

type fakeRegistrar struct {
	entries []bot.HandlerFunc
}

func (f *fakeRegistrar) RegisterHandlerMatchFunc(_ bot.MatchFunc, h bot.HandlerFunc, _ ...bot.Middleware) string {
	f.entries = append(f.entries, h)
	return ""
}

func TestApplyMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	mw := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, u *models.Update) {
				trace = append(trace, name)
				next(ctx, b, u)
			}
		}
	}
	h := func(context.Context, *bot.Bot, *models.Update) { trace = append(trace, "handler") }

	applyMiddleware(h, []bot.Middleware{mw("outer"), mw("inner")})(context.Background(), nil, &models.Update{})

	want := []string{"outer", "inner", "handler"}
	if !slices.Equal(trace, want) {
		t.Errorf("trace = %v, want %v", trace, want)
	}
}

func TestRegisterHandlers(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	match := func(*models.Update) bool { return true }
	noop := func(context.Context, *bot.Bot, *models.Update) {}

	r := &fakeRegistrar{}
	err := RegisterHandlers(r, log, map[string]handlers.RegisteredHandler{
		"ok":         {Match: match, Handler: noop},
		"no handler": {Match: match},
		"no match":   {Handler: noop},
	})
	if err != nil {
		t.Fatalf("RegisterHandlers() error = %v", err)
	}
	if len(r.entries) != 1 {
		t.Errorf("registered %d handlers, want 1", len(r.entries))
	}

	if err := RegisterHandlers(nil, log, nil); err == nil {
		t.Error("RegisterHandlers(nil) expected error")
	}
}

func TestNewTelegramBotRequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := NewTelegramBot("", nil); err == nil {
		t.Error("NewTelegramBot() expected error for empty token")
	}
}

func TestTokenPrefix(t *testing.T) {
	t.Parallel()
	if got := tokenPrefix("123456789:ABCDEF"); got != "12345678..." {
		t.Errorf("tokenPrefix() = %q", got)
	}
	if got := tokenPrefix("short"); got != "***" {
		t.Errorf("tokenPrefix(short) = %q", got)
	}
}
