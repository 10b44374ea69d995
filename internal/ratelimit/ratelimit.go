// Package ratelimit throttles how many documents per second are processed.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type Limiter struct {
	limiter *rate.Limiter
}

// New uses 0 or negative limit for no rate limiting.
func New(documentsPerSecond float64) *Limiter {
	if documentsPerSecond <= 0 {
		return &Limiter{
			limiter: rate.NewLimiter(rate.Inf, 1),
		}
	}

	// Burst of 1: the first document passes immediately and every following
	// one waits for its slot.
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(documentsPerSecond), 1),
	}
}

// Wait blocks until the next document may be processed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// Limit reports documents per second, 0 when unlimited.
func (l *Limiter) Limit() float64 {
	limit := l.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}

func (l *Limiter) Unlimited() bool {
	return l.limiter.Limit() == rate.Inf
}
