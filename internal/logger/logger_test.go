package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short", input: "meow", maxLen: 10, want: "meow"},
		{name: "exact", input: "meow", maxLen: 4, want: "meow"},
		{name: "cut", input: "meow meow meow", maxLen: 8, want: "meow ..."},
		{name: "tiny limit", input: "meow meow", maxLen: 2, want: "..."},
		{name: "multibyte", input: "котики котики", maxLen: 9, want: "котики..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestUpdateAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		update   *models.Update
		wantType string
	}{
		{name: "nil", update: nil, wantType: "nil"},
		{
			name:     "text",
			update:   &models.Update{ID: 1, Message: &models.Message{ID: 2, Chat: models.Chat{ID: 3}, Text: "hi"}},
			wantType: "message",
		},
		{
			name:     "voice",
			update:   &models.Update{ID: 1, Message: &models.Message{ID: 2, Chat: models.Chat{ID: 3}, Voice: &models.Voice{FileID: "f"}}},
			wantType: "voice",
		},
		{
			name:     "audio",
			update:   &models.Update{ID: 1, Message: &models.Message{ID: 2, Chat: models.Chat{ID: 3}, Audio: &models.Audio{FileID: "f"}}},
			wantType: "audio",
		},
		{
			name:     "inline",
			update:   &models.Update{ID: 1, InlineQuery: &models.InlineQuery{ID: "q", Query: "purr", From: &models.User{ID: 9}}},
			wantType: "inline_query",
		},
		{name: "other", update: &models.Update{ID: 1}, wantType: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			attrs := UpdateAttrs(tt.update)
			got := ""
			for i := 0; i+1 < len(attrs); i += 2 {
				if attrs[i] == "update_type" {
					got, _ = attrs[i+1].(string)
				}
			}
			if got != tt.wantType {
				t.Errorf("update_type = %q, want %q (attrs %v)", got, tt.wantType, attrs)
			}
		})
	}
}

func TestMiddlewareLogsAroundHandler(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "info", true)

	called := false
	h := Middleware(log)(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		called = true
	})
	h(context.Background(), nil, &models.Update{ID: 7, Message: &models.Message{Chat: models.Chat{ID: 5}, Text: "hello"}})

	if !called {
		t.Fatal("middleware did not call next handler")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}
	var first, last map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &last); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	if first["msg"] != "Processing update" || first["chat_id"] != float64(5) {
		t.Errorf("unexpected entry log: %v", first)
	}
	if last["msg"] != "Finished processing update" {
		t.Errorf("unexpected exit log: %v", last)
	}
	if _, ok := last["duration"]; !ok {
		t.Errorf("exit log has no duration: %v", last)
	}
}
