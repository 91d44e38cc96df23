// Package retry provides the exponential backoff policy wrapped around calls
// to flaky external services.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrExhausted is returned when a call keeps failing past MaxAttempts.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy retries an operation with exponential backoff. The wait before retry
// n (1-based) is Multiplier*2^(n-1), clamped to [MinDelay, MaxDelay].
type Policy struct {
	Multiplier time.Duration
	MinDelay   time.Duration
	MaxDelay   time.Duration
	// MaxAttempts caps the number of calls. Zero or negative retries forever.
	MaxAttempts int

	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry, when set, observes every failed attempt that will be retried.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Default mirrors the archive lookup defaults: 1s multiplier, 4s floor,
// 10s ceiling, no attempt cap.
func Default() Policy {
	return Policy{
		Multiplier: time.Second,
		MinDelay:   4 * time.Second,
		MaxDelay:   10 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.Multiplier
	for i := 1; i < attempt; i++ {
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			break
		}
		if delay > math.MaxInt64/2 {
			break
		}
		delay *= 2
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if delay < p.MinDelay {
		delay = p.MinDelay
	}
	if delay < 0 {
		return 0
	}
	return delay
}

// Do calls op until it returns nil, the context ends, or MaxAttempts calls
// have failed. Context cancellation is never retried.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
