package remote

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds the exponential backoff around remote calls
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries five times starting at half a second
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retry runs op until it succeeds, the tries run out or ctx ends
func retry(ctx context.Context, p RetryPolicy, log *logrus.Entry, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WithError(err).WithField("retry_in", next).Warn("remote call failed, retrying")
		}),
	)
	return err
}
