package aagslist

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy is a bounded exponential backoff applied at the provider
// boundary.
type RetryPolicy struct {
	// MaxAttempts counts the first try, values below 1 mean a single attempt.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	if p.Multiplier >= 1 {
		exp.Multiplier = p.Multiplier
	}
	exp.RandomizationFactor = 0
	// the attempt count bounds the retries, not the elapsed time
	exp.MaxElapsedTime = 0

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Do runs op until it succeeds, the attempts run out or ctx is done.
// It returns op's last error.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	return backoff.Retry(op, p.backOff(ctx))
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

type retryingProvider struct {
	inner  Provider
	policy RetryPolicy
}

// WithRetry wraps provider so every fetch is retried according to policy.
func WithRetry(provider Provider, policy RetryPolicy) Provider {
	return retryingProvider{inner: provider, policy: policy}
}

func (r retryingProvider) FetchSubjects(ctx context.Context) ([]string, error) {
	var subjects []string
	err := r.policy.Do(ctx, func() error {
		var err error
		subjects, err = r.inner.FetchSubjects(ctx)
		return err
	})
	return subjects, err
}
