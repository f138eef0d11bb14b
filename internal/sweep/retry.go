package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmgr-api/internal/redact"
	"github.com/sethvargo/go-retry"
)

// Notifier sends one due-task notice. *Sender implements it.
type Notifier interface {
	Send(ctx context.Context, to, description string, dueDate time.Time) error
}

// Retrier wraps a Notifier with bounded exponential backoff. Before retry n
// (n starting at 1) it waits baseDelay * 2^n.
type Retrier struct {
	notifier   Notifier
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger

	// observe is called with each scheduled delay; tests use it.
	observe func(attempt int, delay time.Duration)
}

// NewRetrier creates a Retrier making at most maxRetries attempts. Values
// below one are treated as one.
func NewRetrier(notifier Notifier, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Retrier {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		notifier:   notifier,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger.With(slog.String("component", "sweep_retry")),
	}
}

// Delay returns the wait before retry attempt (1-based).
func (r *Retrier) Delay(attempt int) time.Duration {
	return r.baseDelay * time.Duration(1<<attempt)
}

func (r *Retrier) backoff() retry.Backoff {
	attempt := 0
	next := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		d := r.Delay(attempt)
		if r.observe != nil {
			r.observe(attempt, d)
		}
		return d, false
	})
	return retry.WithMaxRetries(uint64(r.maxRetries-1), next)
}

// Send delivers the notice, retrying failed attempts. It reports whether any
// attempt succeeded. Cancelling ctx abandons the remaining attempts.
func (r *Retrier) Send(ctx context.Context, address, description string, dueDate time.Time) bool {
	attempt := 0
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++
		err := r.notifier.Send(ctx, address, description, dueDate)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrInvalidAddress) {
			return err
		}

		r.logger.Warn("notification attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", r.maxRetries),
			slog.String("error", redact.Error(err)))
		return retry.RetryableError(err)
	})
	if err != nil {
		r.logger.Error("notification failed",
			slog.Int("attempts", attempt),
			slog.String("error", redact.Error(err)))
		return false
	}
	return true
}
