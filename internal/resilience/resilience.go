// Package resilience guards upstream API calls with a circuit breaker and
// bounded retries with exponential backoff.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sony/gobreaker"

	"github.com/edgard/catbot/internal/persona"
)

// ErrCircuitOpen is returned without calling upstream while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Config configures a Guard.
type Config struct {
	Name         string
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxFailures  uint32
	OpenTimeout  time.Duration
	// Retryable reports whether an error is transient. Only transient errors
	// are retried and counted against the breaker. nil treats everything
	// except context errors as transient.
	Retryable func(error) bool
}

// Guard wraps calls to one upstream service.
type Guard struct {
	name      string
	cb        *gobreaker.CircuitBreaker
	attempts  uint
	delay     time.Duration
	maxDelay  time.Duration
	retryable func(error) bool
	log       *slog.Logger
}

// NewGuard creates a Guard. Zero values in cfg fall back to one attempt, a
// 500ms initial delay, five consecutive failures and a 30s open period.
// Permanent errors pass through without tripping the breaker.
func NewGuard(cfg Config, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	log := logger.With("component", "resilience", "upstream", cfg.Name)
	maxFailures := cfg.MaxFailures

	g := &Guard{
		name:      cfg.Name,
		attempts:  cfg.MaxAttempts,
		delay:     cfg.InitialDelay,
		maxDelay:  cfg.MaxDelay,
		retryable: cfg.Retryable,
		log:       log,
	}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !g.transient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})
	return g
}

// Do runs op through the breaker, retrying retryable failures with backoff
// until the attempts are exhausted or ctx is done.
func (g *Guard) Do(ctx context.Context, op func(context.Context) error) error {
	return retry.Do(
		func() error { return g.once(ctx, op) },
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.MaxDelay(g.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(g.shouldRetry),
		retry.OnRetry(func(n uint, err error) {
			g.log.DebugContext(ctx, "Retrying upstream call", "attempt", n+1, "max_attempts", g.attempts, "error", err)
		}),
	)
}

// Once runs op through the breaker without retrying. It is used for calls
// whose input cannot be replayed.
func (g *Guard) Once(ctx context.Context, op func(context.Context) error) error {
	return g.once(ctx, op)
}

// State returns the breaker state name.
func (g *Guard) State() string {
	return g.cb.State().String()
}

func (g *Guard) once(ctx context.Context, op func(context.Context) error) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, g.name)
	}
	return err
}

func (g *Guard) shouldRetry(err error) bool {
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	return g.transient(err)
}

// transient reports whether err is an upstream fault worth retrying and
// counting against the breaker.
func (g *Guard) transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if g.retryable == nil {
		return true
	}
	return g.retryable(err)
}

// Completer guards a persona.Completer.
type Completer struct {
	Next  persona.Completer
	Guard *Guard
}

// Complete implements persona.Completer.
func (c Completer) Complete(ctx context.Context, messages []persona.Message) (string, error) {
	var answer string
	err := c.Guard.Do(ctx, func(ctx context.Context) error {
		var err error
		answer, err = c.Next.Complete(ctx, messages)
		return err
	})
	return answer, err
}

// Transcriber guards a persona.Transcriber. The audio stream is consumed by
// the first attempt, so calls are never retried.
type Transcriber struct {
	Next  persona.Transcriber
	Guard *Guard
}

// Transcribe implements persona.Transcriber.
func (t Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var text string
	err := t.Guard.Once(ctx, func(ctx context.Context) error {
		var err error
		text, err = t.Next.Transcribe(ctx, audio, filename)
		return err
	})
	return text, err
}

// ImageGenerator guards a persona.ImageGenerator.
type ImageGenerator struct {
	Next  persona.ImageGenerator
	Guard *Guard
}

// GenerateImage implements persona.ImageGenerator.
func (i ImageGenerator) GenerateImage(ctx context.Context, prompt, size string) (string, error) {
	var url string
	err := i.Guard.Do(ctx, func(ctx context.Context) error {
		var err error
		url, err = i.Next.GenerateImage(ctx, prompt, size)
		return err
	})
	return url, err
}

var (
	_ persona.Completer      = Completer{}
	_ persona.Transcriber    = Transcriber{}
	_ persona.ImageGenerator = ImageGenerator{}
)
