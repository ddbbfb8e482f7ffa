// Package handlers contains the Telegram update handlers, the router that
// dispatches updates to them, and their middleware.
package handlers

import (
	"context"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/semaphore"
)

// AuthorizeFunc decides whether a sender may use the gated handlers. user is
// nil when the update carries no sender.
type AuthorizeFunc func(user *models.User) bool

// AllowAll authorizes every sender.
func AllowAll(*models.User) bool { return true }

// AuthGate logs the sender of a gated update and drops it unless allow accepts it.
func AuthGate(deps HandlerDeps, allow AuthorizeFunc) tgbot.Middleware {
	if allow == nil {
		allow = AllowAll
	}
	log := deps.Logger.With("middleware", "AuthGate")

	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			var user *models.User
			if update.Message != nil {
				user = update.Message.From
			}

			if !allow(user) {
				log.WarnContext(ctx, "Unauthorized access attempt", "user", displayName(user), "update_id", update.ID)
				return
			}

			log.InfoContext(ctx, "Authorized access", "user", displayName(user))
			next(ctx, b, update)
		}
	}
}

// Limit bounds in-flight updates with sem and gives each update its own
// deadline. The handler context survives cancellation of the polling context
// so in-flight updates can finish while the bot drains.
func Limit(sem *semaphore.Weighted, timeout time.Duration, logger *slog.Logger) tgbot.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("middleware", "Limit")

	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if err := sem.Acquire(ctx, 1); err != nil {
				log.WarnContext(ctx, "Dropping update, no processing slot", "update_id", update.ID, "error", err)
				return
			}
			defer sem.Release(1)

			hctx := context.WithoutCancel(ctx)
			if timeout > 0 {
				var cancel context.CancelFunc
				hctx, cancel = context.WithTimeout(hctx, timeout)
				defer cancel()
			}
			next(hctx, b, update)
		}
	}
}

func displayName(user *models.User) string {
	switch {
	case user == nil:
		return "unknown"
	case user.Username != "":
		return user.Username
	default:
		return user.FirstName
	}
}
