package marketdata

import (
	"context"
	"time"

	"github.com/tradebotai/options-scanner/internal/logger"
)

// SleepFunc lets tests observe and skip the backoff waits
type SleepFunc func(d time.Duration)

// Retry runs op up to maxAttempts times, sleeping backoff between failed
// attempts but not after the last. The last error is returned when every
// attempt fails; a cancelled context stops the loop early.
func Retry[T any](ctx context.Context, maxAttempts int, backoff time.Duration, sleep SleepFunc, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if sleep == nil {
		sleep = time.Sleep
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Debug.Printf("🔁 attempt %d/%d failed: %v", attempt, maxAttempts, err)

		if attempt < maxAttempts {
			sleep(backoff)
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}
