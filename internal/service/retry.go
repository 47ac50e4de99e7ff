package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mmynk/groupledger/internal/ledger"
)

// Retrier re-runs ledger operations that lost a race for their group.
// Only ledger.ErrConflict is retried; a conflicted transaction has rolled
// back completely, so running it again cannot double-apply.
type Retrier struct {
	maxRetries uint64
	base       time.Duration
}

// NewRetrier retries up to maxRetries times with exponential backoff
// starting at base and 10% jitter.
func NewRetrier(maxRetries uint64, base time.Duration) *Retrier {
	return &Retrier{maxRetries: maxRetries, base: base}
}

func (r *Retrier) backoff() retry.Backoff {
	b := retry.NewExponential(r.base)
	b = retry.WithJitterPercent(10, b)
	return retry.WithMaxRetries(r.maxRetries, b)
}

// Do runs fn until it succeeds, fails with a non-conflict error, or the
// retries are exhausted.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := retryValue(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func retryValue[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	return retry.DoValue(ctx, r.backoff(), func(ctx context.Context) (T, error) {
		attempt++
		v, err := fn(ctx)
		if errors.Is(err, ledger.ErrConflict) {
			slog.Debug("Retrying after conflict", "operation", op, "attempt", attempt, "error", err)
			return v, retry.RetryableError(err)
		}
		return v, err
	})
}
