// Package rate provides a token bucket rate limiter for controlling request
// rates against quota-constrained services.
package rate

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Defaults for the process-wide limiter protecting the AI analyst quota:
// a burst of 2 calls, refilled at 15 tokens per minute.
const (
	DefaultBurst        = 2
	DefaultRefillPerMin = 15.0
)

// Limiter implements a token bucket rate limiter. It supports non-blocking
// (Allow), polling (Wait) and fully blocking (Acquire) modes.
type Limiter struct {
	rate  float64 // tokens per second
	burst int     // bucket capacity

	mu     sync.Mutex // protects the following fields
	tokens float64    // current number of tokens
	last   time.Time  // last time tokens were updated
}

// New creates a rate limiter with the specified refill rate (tokens per
// second) and burst size (bucket capacity).
func New(rate float64, burst int) *Limiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		rate:   rate,
		burst:  burst,
		tokens: float64(burst), // start with full bucket
		last:   time.Now(),
	}
}

// NewAnalystLimiter creates a limiter with the default quota for the shared
// AI analyst client. The instance is constructed once in main and injected;
// there is no package-level singleton so tests can use isolated limiters.
func NewAnalystLimiter() *Limiter {
	return New(DefaultRefillPerMin/60.0, DefaultBurst)
}

// Acquire blocks until one unit of capacity is available and consumes it.
// It never fails except on context cancellation.
//
// When a token is available it is consumed immediately and a short random
// jitter sleep is added so calls against the protected service are not
// perfectly periodic. When the bucket is empty, Acquire computes the exact
// time needed to accumulate one token, sleeps that long plus jitter, and
// resets the bucket as if refilled at that instant.
//
// The mutex is held only for the bookkeeping, never across the sleeps; this
// means concurrent acquirers racing over the same deficit window may be
// admitted slightly early after a cold start, which the protected quota
// tolerates. The alternative (holding the lock across the sleep) would
// serialize all callers.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	l.advance(time.Now())

	if l.tokens >= 1 {
		l.tokens--
		l.mu.Unlock()
		return sleepCtx(ctx, jitter(100*time.Millisecond, 500*time.Millisecond))
	}

	deficit := 1.0 - l.tokens
	wait := time.Duration(deficit / l.rate * float64(time.Second))
	l.mu.Unlock()

	if err := sleepCtx(ctx, wait); err != nil {
		return err
	}

	l.mu.Lock()
	l.tokens = 0
	l.last = time.Now()
	l.mu.Unlock()

	return sleepCtx(ctx, jitter(100*time.Millisecond, 300*time.Millisecond))
}

// Wait blocks until the limiter allows an operation or the context is
// canceled. Unlike Acquire it polls without jitter; it is the mode used by
// the HTTP client.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.waitDuration()):
		}
	}
}

// Allow reports whether an operation can proceed immediately, consuming one
// token if available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance(time.Now())
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// Tokens returns the current number of available tokens.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance(time.Now())
	return l.tokens
}

// Rate returns the refill rate in tokens per second.
func (l *Limiter) Rate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rate
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst
}

// Drain empties the bucket. Useful in tests that need a cold start.
func (l *Limiter) Drain() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens = 0
	l.last = time.Now()
}

// advance updates the token count from elapsed wall-clock time, capped at
// the bucket capacity. Must be called with l.mu held.
func (l *Limiter) advance(now time.Time) {
	elapsed := now.Sub(l.last).Seconds()
	l.tokens += elapsed * l.rate
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}
	l.last = now
}

// waitDuration calculates how long to wait for the next token.
func (l *Limiter) waitDuration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance(time.Now())
	if l.tokens >= 1 {
		return 0
	}
	needed := (1.0 - l.tokens) / l.rate
	return time.Duration(needed * float64(time.Second))
}

func jitter(min, max time.Duration) time.Duration {
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
