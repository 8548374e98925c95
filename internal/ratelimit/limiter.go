package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests to a steady rate. It never retries or backs
// off; it only delays the start of a request.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing perSecond requests with the given burst.
// A perSecond of zero or less disables pacing.
func New(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Unlimited reports whether the limiter lets every request through immediately
func (l *Limiter) Unlimited() bool {
	return l == nil || l.limiter.Limit() == rate.Inf
}

// Wait blocks until the limiter permits a request.
// It returns an error if the context is canceled or its deadline would pass
// before the request can proceed. A nil limiter never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may happen now
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}
