package sink

import (
	"context"
	"math/rand"
	"time"
)

// Backoff retries an operation with exponential backoff and jitter. It
// retries on any error returned by fn; wrap fn to make retries conditional.
type Backoff struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Do runs fn until it succeeds, attempts are exhausted, or ctx is done.
func (b Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempts := b.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	base := b.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	max := b.MaxDelay
	if max < base {
		max = base
	}

	var last error
	delay := base

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if last = fn(ctx); last == nil {
			return nil
		}

		if i == attempts-1 {
			break
		}

		// 0.8x..1.2x jitter keeps concurrent flushes from aligning.
		d := time.Duration(float64(delay) * (0.8 + rand.Float64()*0.4))
		if d > max {
			d = max
		}

		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > max {
			delay = max
		}
	}

	return last
}
