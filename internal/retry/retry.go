// Package retry runs an operation under a bounded retry policy.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds the attempts of one call site
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Exponential doubles Delay after every failure, capped at MaxDelay
	Exponential bool
	MaxDelay    time.Duration
}

// Notify is called after a failed attempt that will be retried
type Notify func(err error, attempt int, wait time.Duration)

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	if p.Exponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.Delay
		eb.Multiplier = 2
		eb.RandomizationFactor = 0
		eb.MaxElapsedTime = 0
		if p.MaxDelay > 0 {
			eb.MaxInterval = p.MaxDelay
		}
		b = eb
	} else {
		b = backoff.NewConstantBackOff(p.Delay)
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Do calls op until it succeeds, returns a permanent error, the context ends
// or MaxAttempts is exhausted. The last error is returned.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error, notify Notify) error {
	attempt := 0
	operation := func() error {
		attempt++
		return op(ctx)
	}
	var n backoff.Notify
	if notify != nil {
		n = func(err error, wait time.Duration) { notify(err, attempt, wait) }
	}

	err := backoff.RetryNotify(operation, p.backOff(ctx), n)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return errors.Join(err, ctx.Err())
	}
	return err
}
