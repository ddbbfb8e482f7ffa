// Package tasks implements the bot's scheduled maintenance tasks.
package tasks

import (
	"log/slog"
	"time"

	"github.com/edgard/catbot/internal/config"
)

// TaskDeps contains the dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Config *config.Config
	// Now is used as the current time; nil means time.Now.
	Now func() time.Time
}

func (d TaskDeps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}
