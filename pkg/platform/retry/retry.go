// Package retry wraps idempotent reads with a single bounded retry.
//
// Writes must not go through this package: a store write that timed out may
// still have been applied.
package retry

import (
	"context"
	"time"

	dErrors "propverify/pkg/domain-errors"
)

const defaultBackoff = 50 * time.Millisecond

// Once runs fn and, if the error is retryable and ctx is still live, runs it
// one more time after a short backoff. The final error is classified.
func Once[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	return OnceWithBackoff(ctx, defaultBackoff, fn)
}

// OnceWithBackoff is Once with an explicit pause between attempts.
func OnceWithBackoff[T any](ctx context.Context, backoff time.Duration, fn func(context.Context) (T, error)) (T, error) {
	result, err := fn(ctx)
	if err == nil {
		return result, nil
	}
	if !dErrors.Retryable(err) || ctx.Err() != nil {
		var zero T
		return zero, dErrors.Classify(err)
	}

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		var zero T
		return zero, dErrors.Classify(ctx.Err())
	case <-timer.C:
	}

	result, err = fn(ctx)
	if err != nil {
		var zero T
		return zero, dErrors.Classify(err)
	}
	return result, nil
}
