// Package retry implements bounded exponential backoff with full jitter for
// recoverable errors.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

type options struct {
	maxRetries int
	baseWait   time.Duration
	maxWait    time.Duration
	jitter     bool
}

// Option configures a call to Do.
type Option func(*options)

// WithMaxRetries sets how many times the operation is re-attempted after the
// initial try. Zero means a single attempt.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = n }
}

// WithBaseWait sets the delay before the first retry.
func WithBaseWait(d time.Duration) Option {
	return func(o *options) { o.baseWait = d }
}

// WithMaxWait caps the delay between retries.
func WithMaxWait(d time.Duration) Option {
	return func(o *options) { o.maxWait = d }
}

// WithoutJitter disables the full-jitter randomization of retry delays.
func WithoutJitter() Option {
	return func(o *options) { o.jitter = false }
}

// Do runs fn, retrying recoverable errors with exponential backoff until it
// succeeds, the attempt budget is exhausted, or the context ends. The last
// error from fn is returned unwrapped. Non-recoverable errors are returned
// immediately (see IsRecoverable).
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	o := &options{
		maxRetries: 3,
		baseWait:   500 * time.Millisecond,
		maxWait:    30 * time.Second,
		jitter:     true,
	}
	for _, opt := range opts {
		opt(o)
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsRecoverable(err) {
			return err
		}
		if attempt >= o.maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.wait(attempt)):
		}
	}
}

// wait computes the delay before retry number attempt+1.
func (o *options) wait(attempt int) time.Duration {
	backoff := float64(o.baseWait) * math.Pow(2, float64(attempt))
	if max := float64(o.maxWait); backoff > max {
		backoff = max
	}
	if o.jitter {
		backoff = rand.Float64() * backoff
	}
	return time.Duration(backoff)
}
