package services

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy controls how often a remote call is attempted and how long to
// wait between attempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Sleep waits for d or until ctx is done. Nil means a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy waits 4s then 8s between three attempts.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   2 * time.Second,
}

// Delay is the wait after the given 1-based failed attempt: 2^attempt × BaseDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryDo calls fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. The last error is returned on failure.
func RetryDo[T any](ctx context.Context, p RetryPolicy, logger *slog.Logger, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == attempts {
			return zero, err
		}

		wait := p.Delay(attempt)
		logger.Info("retrying after transient failure",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("wait", wait),
			slog.String("kind", KindOf(err).String()),
		)
		if err := p.sleep(ctx, wait); err != nil {
			return zero, lastErr
		}
	}
	return zero, lastErr
}
