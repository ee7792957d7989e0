// Package retry provides bounded exponential backoff for transient failures.
package retry

import (
	"context"
	"time"
)

// Config controls exponential backoff behavior.
type Config struct {
	MaxRetries int              // retry attempts after the first try
	BaseDelay  time.Duration    // initial delay between attempts
	MaxDelay   time.Duration    // delay growth cap
	Multiplier float64          // backoff growth factor
	RetryIf    func(error) bool // nil retries every error
}

// DefaultConfig returns the backoff settings used for provider calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
	}
}

// Do runs fn until it succeeds, the retry budget is exhausted, or ctx is done.
// Context cancellation is never retried and surfaces as ctx.Err().
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := cfg.BaseDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return zero, err
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * cfg.Multiplier)
				if backoff > cfg.MaxDelay {
					backoff = cfg.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
