package bot

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/edgard/catbot/internal/bot/tasks"
	"github.com/edgard/catbot/internal/config"
)

type blockingListener struct {
	started chan struct{}
}

func (l *blockingListener) Start(ctx context.Context) {
	close(l.started)
	<-ctx.Done()
}

type returningListener struct{}

func (returningListener) Start(context.Context) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(testLogger(), &config.SchedulerConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	l := &blockingListener{started: make(chan struct{})}
	b := NewBot(testLogger(), l, sched, semaphore.NewWeighted(2), 2, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	<-l.started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestRunFailsWhenListenerStops(t *testing.T) {
	t.Parallel()

	b := NewBot(testLogger(), returningListener{}, nil, nil, 0, 0)
	if err := b.Run(context.Background()); err == nil {
		t.Error("Run() expected error when listener stops on its own")
	}
}

func TestDrainWaitsForInflight(t *testing.T) {
	t.Parallel()

	sem := semaphore.NewWeighted(2)
	if !sem.TryAcquire(1) {
		t.Fatal("acquire failed")
	}
	var released atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		released.Store(true)
		sem.Release(1)
	}()

	b := NewBot(testLogger(), returningListener{}, nil, sem, 2, 5*time.Second)
	b.drain()

	if !released.Load() {
		t.Error("drain returned before in-flight update finished")
	}
	if !sem.TryAcquire(2) {
		t.Error("drain did not release the semaphore")
	}
}

func TestDrainTimeout(t *testing.T) {
	t.Parallel()

	sem := semaphore.NewWeighted(1)
	if !sem.TryAcquire(1) {
		t.Fatal("acquire failed")
	}

	b := NewBot(testLogger(), returningListener{}, nil, sem, 1, 20*time.Millisecond)
	start := time.Now()
	b.drain()
	if time.Since(start) > 2*time.Second {
		t.Error("drain ignored its timeout")
	}
}

func TestSchedulerSchedulesEnabledTasks(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":  {Enabled: true, Schedule: "*/10 * * * *"},
		"disabled": {Enabled: false, Schedule: "*/10 * * * *"},
		"unknown":  {Enabled: true, Schedule: "*/10 * * * *"},
		"bad":      {Enabled: true, Schedule: "not a cron"},
	}}
	taskMap := map[string]tasks.ScheduledTaskFunc{"enabled": noop, "disabled": noop, "bad": noop}

	s, err := NewScheduler(testLogger(), cfg, taskMap)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	if got := s.JobCount(); got != 1 {
		t.Errorf("JobCount() = %d, want 1", got)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start() expected error")
	}
}
