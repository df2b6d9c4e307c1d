// Package orchestrator retries a single operation against transient storage
// contention. The teacher used this package to fan a translation request
// out to several network services in parallel and retry each independently;
// there is only one, offline writer here, so the same exponential back-off
// shape is re-grounded on retrying a single repository write that lost a
// race for a file's advisory lock (spec §7: "storage-lock timeouts are
// non-fatal but warn").
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/valpere/lexbridge/internal/storage"
)

// RetryConfig controls the back-off Retry applies between attempts.
type RetryConfig struct {
	// MaxAttempts is the total number of tries, including the first
	// (default 4).
	MaxAttempts int

	// BaseDelay is the wait before the first retry; it doubles on every
	// subsequent retry up to MaxDelay (default 200ms).
	BaseDelay time.Duration

	// MaxDelay caps the back-off (default 2s).
	MaxDelay time.Duration
}

// DefaultRetryConfig bounds total wait to comfortably less than the ~5s
// budget storage.WithFileLock itself already spends retrying the OS-level
// lock, since a second layer of retry beyond that window would only mask a
// genuinely stuck lock holder rather than a transient one.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 4, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// Retry calls fn until it succeeds, returns a non-lock-timeout error, or
// cfg.MaxAttempts is exhausted, doubling the delay between attempts. Any
// error other than a storage.Error with Kind lock_timeout is returned
// immediately without retrying, since retrying would not help it succeed.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	delay := cfg.BaseDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		lastErr = fn()
		if lastErr == nil || !isLockTimeout(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func isLockTimeout(err error) bool {
	var storageErr *storage.Error
	return errors.As(err, &storageErr) && storageErr.Kind == storage.ErrKindLock
}
