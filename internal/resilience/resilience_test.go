package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/edgard/catbot/internal/persona"
)

var (
	errTransient = errors.New("503 service unavailable")
	errPermanent = errors.New("400 bad request")
)

func testGuard(attempts uint, failures uint32) *Guard {
	return NewGuard(Config{
		Name:         "test",
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		MaxFailures:  failures,
		OpenTimeout:  time.Hour,
		Retryable:    func(err error) bool { return errors.Is(err, errTransient) },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDoRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	g := testGuard(3, 10)
	calls := 0
	err := g.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnPermanentFailure(t *testing.T) {
	t.Parallel()

	g := testGuard(3, 10)
	calls := 0
	err := g.Do(context.Background(), func(context.Context) error {
		calls++
		return errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Errorf("Do() error = %v, want permanent error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	t.Parallel()

	g := testGuard(2, 10)
	calls := 0
	err := g.Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) || calls != 2 {
		t.Errorf("Do() = %v after %d calls", err, calls)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	g := testGuard(1, 2)
	calls := 0
	op := func(context.Context) error {
		calls++
		return errTransient
	}

	for i := 0; i < 2; i++ {
		if err := g.Do(context.Background(), op); !errors.Is(err, errTransient) {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if g.State() != "open" {
		t.Errorf("State() = %q, want open", g.State())
	}

	err := g.Do(context.Background(), op)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Do() error = %v, want ErrCircuitOpen", err)
	}
	if calls != 2 {
		t.Errorf("upstream called %d times, want 2", calls)
	}
}

func TestPermanentFailuresDoNotOpenBreaker(t *testing.T) {
	t.Parallel()

	g := testGuard(1, 2)
	for i := 0; i < 5; i++ {
		err := g.Do(context.Background(), func(context.Context) error { return errPermanent })
		if !errors.Is(err, errPermanent) {
			t.Fatalf("call %d error = %v, want permanent error", i, err)
		}
	}
	if g.State() != "closed" {
		t.Errorf("State() = %q, want closed", g.State())
	}

	calls := 0
	if err := g.Do(context.Background(), func(context.Context) error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("Do() = %v after %d calls, want success on first call", err, calls)
	}
}

func TestDefaultGuardMakesOneAttempt(t *testing.T) {
	t.Parallel()

	g := NewGuard(Config{Name: "test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	calls := 0
	err := g.Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) || calls != 1 {
		t.Errorf("Do() = %v after %d calls, want one attempt", err, calls)
	}
}

func TestDoHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	g := testGuard(5, 10)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := g.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	if err == nil {
		t.Fatal("Do() expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

type flakyTranscriber struct{ calls int }

func (f *flakyTranscriber) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	f.calls++
	_, _ = io.ReadAll(audio)
	return "", errTransient
}

func TestTranscriberIsNotRetried(t *testing.T) {
	t.Parallel()

	inner := &flakyTranscriber{}
	tr := Transcriber{Next: inner, Guard: testGuard(3, 10)}
	if _, err := tr.Transcribe(context.Background(), strings.NewReader("audio"), "a.mp3"); !errors.Is(err, errTransient) {
		t.Errorf("Transcribe() error = %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

type countingCompleter struct {
	calls int
	fail  int
}

func (c *countingCompleter) Complete(context.Context, []persona.Message) (string, error) {
	c.calls++
	if c.calls <= c.fail {
		return "", errTransient
	}
	return "meow", nil
}

func (c *countingCompleter) GenerateImage(context.Context, string, string) (string, error) {
	c.calls++
	if c.calls <= c.fail {
		return "", errTransient
	}
	return "https://img.example/cat.png", nil
}

func TestGuardedPorts(t *testing.T) {
	t.Parallel()

	cc := &countingCompleter{fail: 1}
	answer, err := Completer{Next: cc, Guard: testGuard(3, 10)}.Complete(context.Background(), nil)
	if err != nil || answer != "meow" || cc.calls != 2 {
		t.Errorf("Complete() = %q, %v after %d calls", answer, err, cc.calls)
	}

	ic := &countingCompleter{fail: 1}
	url, err := ImageGenerator{Next: ic, Guard: testGuard(3, 10)}.GenerateImage(context.Background(), "cat", "512x512")
	if err != nil || url != "https://img.example/cat.png" || ic.calls != 2 {
		t.Errorf("GenerateImage() = %q, %v after %d calls", url, err, ic.calls)
	}
}
