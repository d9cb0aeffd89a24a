package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxAttempts int           // Total attempts, including the first
	BaseDelay   time.Duration // Delay before the first retry; doubles each attempt
}

// DefaultRetryConfig returns production-ready retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
	}
}

// Retrier handles retry logic with exponential backoff. The backoff sleep is
// context-aware and suspends only the calling goroutine, so a throttled
// marketplace never delays its siblings.
type Retrier struct {
	config *RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a new retrier with the given config
func NewRetrier(config *RetryConfig) *Retrier {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &Retrier{
		config: config,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes fn, retrying transient failures with delays of
// baseDelay × 2^attempt. The last error is returned when attempts are
// exhausted. Non-retryable errors return immediately.
func (r *Retrier) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		delay := r.config.BaseDelay << attempt

		// Honor the provider's Retry-After hint when it is longer
		var rateLimit *RateLimitError
		if errors.As(lastErr, &rateLimit) && rateLimit.RetryAfter > delay {
			delay = rateLimit.RetryAfter
		}

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, r.config.MaxAttempts, lastErr)
}
