package aagslist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aags-annotator/internal/components/telemetry"
	"aags-annotator/internal/subject"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProvider struct {
	calls    atomic.Int32
	subjects []string
	errs     []error
	block    chan struct{}
}

func (f *fakeProvider) FetchSubjects(ctx context.Context) ([]string, error) {
	n := int(f.calls.Add(1))
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= len(f.errs) && f.errs[n-1] != nil {
		return nil, f.errs[n-1]
	}
	return f.subjects, nil
}

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestCacheLoadsOnce(t *testing.T) {
	provider := &fakeProvider{subjects: []string{"6.100A", "6.100B"}}
	cache := NewCache(provider, CacheOptions{Telemetry: &telemetry.Recorder{}})

	for i := 0; i < 3; i++ {
		set, err := cache.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, 2, set.Len())
	}
	require.Equal(t, int32(1), provider.calls.Load())

	cache.Invalidate()
	_, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), provider.calls.Load())
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2025, time.September, 2, 9, 0, 0, 0, time.UTC)
	provider := &fakeProvider{subjects: []string{"6.100A"}}
	cache := NewCache(provider, CacheOptions{
		TTL:       time.Minute,
		Telemetry: &telemetry.Recorder{},
		Now:       func() time.Time { return now },
	})

	_, err := cache.Load(context.Background())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, ok := cache.Peek()
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	_, ok = cache.Peek()
	require.False(t, ok)

	_, err = cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), provider.calls.Load())
}

func TestCacheFailuresAreNotCached(t *testing.T) {
	recorder := &telemetry.Recorder{}
	provider := &fakeProvider{
		subjects: []string{"6.100A"},
		errs:     []error{errors.New("anchor not found")},
	}
	cache := NewCache(provider, CacheOptions{Telemetry: recorder})

	set, err := cache.Load(context.Background())
	require.ErrorIs(t, err, ErrProviderUnavailable)
	require.ErrorContains(t, err, "anchor not found")
	require.Equal(t, 0, set.Len())
	require.True(t, recorder.Has("broken", "aagslist: "+report_cache_load))

	set, err = cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
}

func TestCacheEmptyList(t *testing.T) {
	recorder := &telemetry.Recorder{}
	provider := &fakeProvider{subjects: []string{}}
	cache := NewCache(provider, CacheOptions{Telemetry: recorder})

	_, err := cache.Load(context.Background())
	require.ErrorIs(t, err, ErrEmptyList)
	require.True(t, recorder.Has("warning", "aagslist: "+report_cache_load))

	result := cache.Result(context.Background())
	require.False(t, result.Success)
	require.Equal(t, ErrEmptyList.Error(), result.Error)
	require.Equal(t, int32(2), provider.calls.Load())
}

func TestCacheCollapsesConcurrentLoads(t *testing.T) {
	provider := &fakeProvider{subjects: []string{"6.100A"}, block: make(chan struct{})}
	cache := NewCache(provider, CacheOptions{Telemetry: &telemetry.Recorder{}})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.Load(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool {
		return provider.calls.Load() == 1
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(provider.block)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), provider.calls.Load())
}

func TestCacheLoadSurvivesCanceledCaller(t *testing.T) {
	provider := &fakeProvider{subjects: []string{"6.100A"}, block: make(chan struct{})}
	recorder := &telemetry.Recorder{}
	cache := NewCache(provider, CacheOptions{Telemetry: recorder})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Load(first)
		firstErr <- err
	}()
	require.Eventually(t, func() bool {
		return provider.calls.Load() == 1
	}, time.Second, time.Millisecond)

	type loaded struct {
		set subject.FlaggedSet
		err error
	}
	second := make(chan loaded, 1)
	go func() {
		set, err := cache.Load(context.Background())
		second <- loaded{set: set, err: err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	err := <-firstErr
	require.ErrorIs(t, err, ErrProviderUnavailable)
	require.ErrorIs(t, err, context.Canceled)

	close(provider.block)
	res := <-second
	require.NoError(t, res.err)
	require.True(t, res.set.Has("6.100A"))
	require.Equal(t, int32(1), provider.calls.Load())
	require.Empty(t, recorder.Reports("broken"))

	set, ok := cache.Peek()
	require.True(t, ok)
	require.Equal(t, 1, set.Len())
}

func TestRetryPolicy(t *testing.T) {
	provider := &fakeProvider{
		subjects: []string{"6.100A"},
		errs:     []error{errors.New("one"), errors.New("two")},
	}

	subjects, err := WithRetry(provider, fastRetry(3)).FetchSubjects(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"6.100A"}, subjects)
	require.Equal(t, int32(3), provider.calls.Load())

	provider = &fakeProvider{errs: []error{errors.New("one"), errors.New("two"), errors.New("three")}}
	_, err = WithRetry(provider, fastRetry(2)).FetchSubjects(context.Background())
	require.EqualError(t, err, "two")
	require.Equal(t, int32(2), provider.calls.Load())

	provider = &fakeProvider{errs: []error{errors.New("one")}}
	_, err = WithRetry(provider, fastRetry(0)).FetchSubjects(context.Background())
	require.EqualError(t, err, "one")
	require.Equal(t, int32(1), provider.calls.Load())
}

func TestRetryPermanent(t *testing.T) {
	calls := 0
	err := fastRetry(5).Do(context.Background(), func() error {
		calls++
		return Permanent(errors.New("status 404"))
	})
	require.EqualError(t, err, "status 404")
	require.Equal(t, 1, calls)
}

func TestRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastRetry(5).Do(ctx, func() error {
		calls++
		return errors.New("unreachable")
	})
	require.Error(t, err)
	require.LessOrEqual(t, calls, 1)
}

func TestResult(t *testing.T) {
	require.Equal(t, Result{Success: true, Subjects: []string{}}, ResultOf(nil, nil))
	require.NoError(t, ResultOf([]string{"6.100A"}, nil).Err())
	require.ErrorIs(t, ResultOf([]string{}, nil).Err(), ErrEmptyList)

	failed := ResultOf(nil, errors.New("timeout"))
	require.False(t, failed.Success)
	require.Equal(t, "timeout", failed.Error)
	require.ErrorIs(t, failed.Err(), ErrProviderUnavailable)
}
