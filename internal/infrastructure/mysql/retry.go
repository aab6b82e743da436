package mysql

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	apperrors "stockroom/internal/errors"
)

// Backoff before attempt 2, 3, ... Attempts past the end reuse the last value.
var retryBackoffs = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}

// RetryOnDeadlock runs fn up to maxAttempts times while it fails with a
// deadlock or lock wait timeout. fn must open and finish its own transaction.
func RetryOnDeadlock(ctx context.Context, logger *zap.Logger, maxAttempts int, operation string, fn func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !IsDeadlock(err) {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		backoff := retryBackoffs[min(attempt-1, len(retryBackoffs)-1)]
		// ±20% jitter
		jitter := time.Duration(float64(backoff) * (rand.Float64()*0.4 - 0.2))
		logger.Warn("deadlock detected, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}

	return apperrors.NewDeadlockError("max retries exceeded for " + operation)
}
