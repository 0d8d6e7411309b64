package safety

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a named token bucket over golang.org/x/time/rate
type RateLimiter struct {
	name    string
	limiter *rate.Limiter

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter that starts full, holding capacity tokens
// and refilling refillRate tokens per second
func NewRateLimiter(name string, capacity int, refillRate float64) *RateLimiter {
	return &RateLimiter{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(refillRate), capacity),
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Allow takes a token when one is available
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.AllowN(rl.now(), 1)
}

// Wait blocks until a token is available or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := rl.now()
	r := rl.limiter.ReserveN(now, 1)
	if !r.OK() {
		return context.DeadlineExceeded
	}

	delay := r.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	if err := rl.sleep(ctx, delay); err != nil {
		r.CancelAt(rl.now())
		return err
	}
	return nil
}

// Tokens returns the tokens currently available
func (rl *RateLimiter) Tokens() float64 {
	return rl.limiter.TokensAt(rl.now())
}

// Name identifies the limiter in logs
func (rl *RateLimiter) Name() string {
	return rl.name
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
