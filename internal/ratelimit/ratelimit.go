package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/edithx/rewarder/pkg/utils"
	"go.uber.org/zap"
)

// Key identifies a rate limited resource.
type Key string

// KeySocialAPI is shared by every call made to the social data API.
const KeySocialAPI Key = "social-api"

// Config holds the admission budget of the limiter.
type Config struct {
	// Limit is the maximum number of requests admitted within one window.
	Limit int

	// Window is the length of the rolling window.
	Window time.Duration
}

// Limit describes the current admission state for a key.
type Limit struct {
	// Remaining is how many requests may still be made in the current window.
	Remaining int

	// ResetAt is when the oldest request in the window expires and capacity frees up.
	ResetAt time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithWaitHook registers a callback invoked each time a caller has to wait for capacity.
func WithWaitHook(hook func(key Key, wait time.Duration)) Option {
	return func(l *Limiter) {
		l.onWait = hook
	}
}

// Limiter is a sliding window log limiter. Every admitted request's timestamp is kept
// per key and timestamps older than the window are discarded on each check.
// State lives in memory only and is lost on restart.
type Limiter struct {
	config Config
	logger *zap.Logger
	now    func() time.Time
	onWait func(key Key, wait time.Duration)

	mu       sync.Mutex
	requests map[Key][]time.Time
}

// New creates a new rate limiter with the given configuration.
func New(config Config, logger *zap.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		config:   config,
		logger:   logger.Named("ratelimit"),
		now:      time.Now,
		requests: make(map[Key][]time.Time),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Admit reports the remaining capacity for key without recording a request.
func (l *Limiter) Admit(key Key) Limit {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.admitLocked(key, l.now())
}

// Record marks one admitted request for key.
func (l *Limiter) Record(key Key) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests[key] = append(l.requests[key], l.now())
}

// Acquire blocks until a request for key can be admitted and records it.
// The check and the record happen under one lock so concurrent callers
// can never overshoot the limit.
func (l *Limiter) Acquire(ctx context.Context, key Key) error {
	for {
		l.mu.Lock()
		now := l.now()
		limit := l.admitLocked(key, now)

		if limit.Remaining > 0 {
			l.requests[key] = append(l.requests[key], now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		wait := limit.ResetAt.Sub(now)
		l.logger.Debug("Rate limit reached, waiting",
			zap.String("key", string(key)),
			zap.Duration("wait", wait))

		if l.onWait != nil {
			l.onWait(key, wait)
		}

		if utils.ContextSleep(ctx, wait) == utils.SleepCancelled {
			return ctx.Err()
		}
	}
}

// admitLocked prunes expired timestamps and computes the current limit.
// Callers must hold l.mu.
func (l *Limiter) admitLocked(key Key, now time.Time) Limit {
	windowStart := now.Add(-l.config.Window)

	stamps := l.requests[key]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}

	if len(kept) == 0 {
		delete(l.requests, key)
	} else {
		l.requests[key] = kept
	}

	limit := Limit{
		Remaining: max(0, l.config.Limit-len(kept)),
		ResetAt:   now,
	}

	if len(kept) > 0 {
		limit.ResetAt = kept[0].Add(l.config.Window)
	}

	return limit
}
