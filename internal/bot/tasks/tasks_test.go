package tasks

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgard/catbot/internal/config"
)

func testDeps(t *testing.T, now time.Time) TaskDeps {
	t.Helper()
	return TaskDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{Audio: config.AudioConfig{ScratchDir: t.TempDir(), ScratchMaxAge: 15 * time.Minute}},
		Now:    func() time.Time { return now },
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(testDeps(t, time.Now()))
	if _, ok := tasks[config.ScratchCleanupTask]; !ok {
		t.Errorf("task %q not registered: %v", config.ScratchCleanupTask, tasks)
	}
}

func TestScratchCleanupTask(t *testing.T) {
	t.Parallel()

	now := time.Now()
	deps := testDeps(t, now)
	dir := deps.Config.Audio.ScratchDir

	stale := filepath.Join(dir, "stale.ogg")
	fresh := filepath.Join(dir, "fresh.mp3")
	for _, p := range []string{stale, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	old := now.Add(-time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	if err := newScratchCleanupTask(deps)(context.Background()); err != nil {
		t.Fatalf("task error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file was not removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file removed: %v", err)
	}
}

func TestScratchCleanupTaskCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := newScratchCleanupTask(testDeps(t, time.Now()))(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
