package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/catbot/internal/audio"
)

// NewVoiceHandler returns a handler for voice notes and audio files. The file
// is downloaded and transcoded in the scratch dir, transcribed, and catified.
func NewVoiceHandler(deps HandlerDeps) bot.HandlerFunc {
	return voiceHandler{deps}.Handle
}

type voiceHandler struct {
	deps HandlerDeps
}

func (h voiceHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h voiceHandler) handle(ctx context.Context, m Messenger, update *models.Update) {
	log := h.deps.Logger.With("handler", "voice")

	if update.Message == nil {
		log.WarnContext(ctx, "Voice handler received update with nil message", "update_id", update.ID, "error", ErrMalformedUpdate)
		return
	}
	msg := update.Message

	fileID := voiceFileID(msg)
	if fileID == "" {
		log.WarnContext(ctx, "Voice handler received message without file id", "update_id", update.ID, "error", ErrMalformedUpdate)
		return
	}

	log.InfoContext(ctx, "Handling voice message", "chat_id", msg.Chat.ID, "file_id", fileID)

	text, err := h.process(ctx, m, fileID)
	if err != nil {
		reportFailure(ctx, m, h.deps, log, msg.Chat.ID, "Failed to process voice message", err)
		return
	}

	sendText(ctx, m, log, msg.Chat.ID, text)
}

// process runs the download, transcode and transcribe steps. Both scratch
// files are removed on every return path.
func (h voiceHandler) process(ctx context.Context, m Messenger, fileID string) (string, error) {
	log := h.deps.Logger.With("handler", "voice")

	file, err := m.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("failed to get file: %w", err)
	}
	if file == nil || file.FilePath == "" {
		return "", fmt.Errorf("%w: empty file path returned from Telegram", ErrMalformedUpdate)
	}

	src, mp3 := audio.ScratchPaths(h.deps.Config.Audio.ScratchDir, filepath.Ext(file.FilePath))
	defer func() {
		for _, p := range []string{src, mp3} {
			if err := audio.RemoveFile(p); err != nil {
				log.WarnContext(ctx, "Failed to remove scratch file", "path", p, "error", err)
			}
		}
	}()

	n, err := h.deps.Files.Download(ctx, file.FilePath, src)
	if err != nil {
		return "", fmt.Errorf("failed to download voice file: %w", err)
	}
	log.DebugContext(ctx, "Downloaded voice file", "path", src, "bytes", n)

	if err := h.deps.Transcoder.Transcode(ctx, src, mp3); err != nil {
		return "", fmt.Errorf("failed to transcode voice file: %w", err)
	}

	f, err := os.Open(mp3)
	if err != nil {
		return "", fmt.Errorf("failed to open transcoded file: %w", err)
	}
	defer f.Close()

	return h.deps.Persona.Transcribe(ctx, f, filepath.Base(mp3))
}

func voiceFileID(msg *models.Message) string {
	switch {
	case msg.Voice != nil:
		return msg.Voice.FileID
	case msg.Audio != nil:
		return msg.Audio.FileID
	default:
		return ""
	}
}
