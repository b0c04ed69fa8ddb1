package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// SendLimiter is a single token bucket shared by every outbound email send,
// whether triggered by the consumer or by the manual-send endpoint.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type SendLimiter struct {
	limiter *rate.Limiter
}

// New creates a SendLimiter granting ratePerSec sends per second.
func New(ratePerSec int) *SendLimiter {
	return &SendLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Wait blocks until the limiter grants a token.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (l *SendLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
