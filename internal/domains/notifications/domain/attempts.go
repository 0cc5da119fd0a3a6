package domain

import (
	"context"
	"sync/atomic"
)

type attemptCounterKey struct{}

// AttemptCounter tallies delivery attempts a channel makes within one send.
type AttemptCounter struct {
	n atomic.Int32
}

// Count returns the attempts recorded so far.
func (c *AttemptCounter) Count() int {
	if c == nil {
		return 0
	}
	return int(c.n.Load())
}

// WithAttemptCounter returns a context that channels report their attempts into.
func WithAttemptCounter(ctx context.Context) (context.Context, *AttemptCounter) {
	counter := &AttemptCounter{}
	return context.WithValue(ctx, attemptCounterKey{}, counter), counter
}

// CountAttempt records one delivery attempt on the counter carried by ctx, if any.
func CountAttempt(ctx context.Context) {
	if counter, ok := ctx.Value(attemptCounterKey{}).(*AttemptCounter); ok {
		counter.n.Add(1)
	}
}
