package blossom

import (
	"context"
	"math/rand"
	"time"
)

// backoff computes the delay before the next retry. attempt starts at 1
// for the first retry (after the first failed attempt).
type backoff interface {
	next(attempt int) time.Duration
}

// exponentialBackoff doubles the delay per retry up to a cap, with
// proportional jitter to avoid thundering herds.
type exponentialBackoff struct {
	base   time.Duration
	max    time.Duration
	jitter float64 // 0..1
}

func defaultBackoff() backoff {
	return exponentialBackoff{
		base:   time.Second,
		max:    10 * time.Second,
		jitter: 0.2,
	}
}

func (b exponentialBackoff) next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.base
	for i := 1; i < attempt; i++ {
		if d >= b.max/2 {
			d = b.max
			break
		}
		d *= 2
	}
	if d > b.max {
		d = b.max
	}
	if b.jitter <= 0 {
		return d
	}
	j := min(b.jitter, 1)
	f := 1 + (rand.Float64()*2-1)*j
	if f < 0 {
		f = 0
	}
	return time.Duration(float64(d) * f)
}

// retryDelay picks the wait before the next attempt. A server-specified
// rate-limit delay is honored exactly; everything else follows the
// backoff schedule.
func retryDelay(err *Error, attempt int, b backoff) time.Duration {
	if err.Type == ErrorTypeRateLimit && err.RetryAfter > 0 {
		return err.RetryAfter
	}
	return b.next(attempt)
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
