// Package ratelimit paces outbound calls to the marketplace and the
// compatibility oracle.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Limiter interface {
	Wait(ctx context.Context) error
}

// SimpleLimiter enforces a minimum gap between consecutive actions, with
// optional jitter up to a maximum gap so request timing does not look
// mechanical.
type SimpleLimiter struct {
	mu         sync.Mutex
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
}

func New(minDelay, maxDelay time.Duration) *SimpleLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &SimpleLimiter{minDelay: minDelay, maxDelay: maxDelay}
}

func (l *SimpleLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delay := l.minDelay
	if l.maxDelay > l.minDelay {
		delay += time.Duration(rand.Int63n(int64(l.maxDelay - l.minDelay)))
	}

	if elapsed := time.Since(l.lastAction); elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	l.lastAction = time.Now()
	return nil
}

// None is a Limiter that never waits; tests and dry runs use it.
type None struct{}

func (None) Wait(context.Context) error { return nil }
