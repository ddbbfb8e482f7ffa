package handlers

import (
	"context"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/semaphore"
)

func TestAuthGate(t *testing.T) {
	t.Parallel()

	deps := testDeps(t, &fakePersona{})
	tests := []struct {
		name     string
		allow    AuthorizeFunc
		update   *models.Update
		wantNext bool
	}{
		{name: "allow all", allow: AllowAll, update: textUpdate("hi"), wantNext: true},
		{name: "nil func allows", allow: nil, update: textUpdate("hi"), wantNext: true},
		{name: "no sender", allow: AllowAll, update: &models.Update{Message: &models.Message{Text: "hi"}}, wantNext: true},
		{
			name:     "rejected",
			allow:    func(u *models.User) bool { return u != nil && u.Username == "tom" },
			update:   textUpdate("hi"),
			wantNext: false,
		},
	}

	for _, tt := range tests {
		called := false
		next := func(context.Context, *tgbot.Bot, *models.Update) { called = true }
		AuthGate(deps, tt.allow)(next)(context.Background(), nil, tt.update)
		if called != tt.wantNext {
			t.Errorf("%s: next called = %v, want %v", tt.name, called, tt.wantNext)
		}
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	if got := displayName(&models.User{Username: "tom", FirstName: "Tom"}); got != "tom" {
		t.Errorf("displayName() = %q", got)
	}
	if got := displayName(&models.User{FirstName: "Tom"}); got != "Tom" {
		t.Errorf("displayName() fallback = %q", got)
	}
	if got := displayName(nil); got != "unknown" {
		t.Errorf("displayName(nil) = %q", got)
	}
}

func TestLimitAppliesDeadlineAndReleases(t *testing.T) {
	t.Parallel()

	sem := semaphore.NewWeighted(1)
	var hadDeadline, heldSlot bool
	next := func(ctx context.Context, _ *tgbot.Bot, _ *models.Update) {
		_, hadDeadline = ctx.Deadline()
		heldSlot = !sem.TryAcquire(1)
	}

	Limit(sem, time.Minute, testLogger())(next)(context.Background(), nil, &models.Update{ID: 1})

	if !hadDeadline {
		t.Error("handler context has no deadline")
	}
	if !heldSlot {
		t.Error("handler ran without holding a slot")
	}
	if !sem.TryAcquire(1) {
		t.Error("slot was not released")
	}
}

func TestLimitSurvivesParentCancellation(t *testing.T) {
	t.Parallel()

	sem := semaphore.NewWeighted(1)
	var handlerErr error
	started := make(chan struct{})
	parent, cancel := context.WithCancel(context.Background())

	next := func(ctx context.Context, _ *tgbot.Bot, _ *models.Update) {
		close(started)
		cancel()
		handlerErr = ctx.Err()
	}
	Limit(sem, time.Minute, testLogger())(next)(parent, nil, &models.Update{ID: 1})

	<-started
	if handlerErr != nil {
		t.Errorf("handler context cancelled with parent: %v", handlerErr)
	}
}

func TestLimitDropsWhenNoSlot(t *testing.T) {
	t.Parallel()

	sem := semaphore.NewWeighted(1)
	if !sem.TryAcquire(1) {
		t.Fatal("could not take the only slot")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	next := func(context.Context, *tgbot.Bot, *models.Update) { called = true }
	Limit(sem, time.Minute, nil)(next)(ctx, nil, &models.Update{ID: 1})

	if called {
		t.Error("handler ran without a slot")
	}
}
