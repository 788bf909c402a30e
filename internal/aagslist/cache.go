package aagslist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aags-annotator/internal/components/assert"
	"aags-annotator/internal/components/telemetry"
	"aags-annotator/internal/subject"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("aags.internal.aagslist")

const (
	report_cache_load     = "cache.load"
	report_cache_subjects = "cache.subjects"
)

const defaultCacheKey = "aags"

type entry struct {
	set      subject.FlaggedSet
	loadedAt time.Time
}

// Cache holds the flagged set for the lifetime of the process, or less: the
// owner decides when it is invalidated and how long entries live. Failures and
// empty lists are never cached. Concurrent loads share one provider call.
type Cache struct {
	provider Provider
	entries  *lru.Cache[string, entry]
	group    *singleflight.Group
	key      string
	ttl      time.Duration
	now      func() time.Time
	tel      telemetry.API
}

type CacheOptions struct {
	// TTL bounds the age of a cached list, zero keeps it until invalidated.
	TTL time.Duration
	// Key distinguishes lists when several caches report to the same place.
	Key       string
	Telemetry telemetry.API
	// Now replaces the clock, used by tests.
	Now func() time.Time
}

func NewCache(provider Provider, opts CacheOptions) *Cache {
	assert.NotNil(provider, "aags list provider")

	entries, err := lru.New[string, entry](1)
	if err != nil {
		panic(err)
	}

	c := &Cache{
		provider: provider,
		entries:  entries,
		group:    &singleflight.Group{},
		key:      opts.Key,
		ttl:      opts.TTL,
		now:      opts.Now,
		tel:      opts.Telemetry,
	}
	if c.key == "" {
		c.key = defaultCacheKey
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.tel == nil {
		c.tel = telemetry.SlogAPI{}
	}
	c.tel = telemetry.NewScopedAPI("aagslist", c.tel)
	return c
}

// Peek returns the cached set without calling the provider.
func (c *Cache) Peek() (subject.FlaggedSet, bool) {
	cached, ok := c.entries.Get(c.key)
	if !ok {
		return subject.FlaggedSet{}, false
	}
	if c.ttl > 0 && c.now().Sub(cached.loadedAt) >= c.ttl {
		c.entries.Remove(c.key)
		return subject.FlaggedSet{}, false
	}
	return cached.set, true
}

// Invalidate drops the cached set, the next Load calls the provider.
func (c *Cache) Invalidate() {
	c.entries.Remove(c.key)
	c.group.Forget(c.key)
}

// Load returns the cached set or fetches it. Errors wrap ErrProviderUnavailable
// or are ErrEmptyList, in both cases the returned set is empty. A caller whose
// ctx ends stops waiting, the fetch it joined still completes for the others.
func (c *Cache) Load(ctx context.Context) (subject.FlaggedSet, error) {
	if set, ok := c.Peek(); ok {
		return set, nil
	}

	// the shared fetch outlives any single caller, each caller only waits
	// for as long as its own context allows
	shared := context.WithoutCancel(ctx)
	results := c.group.DoChan(c.key, func() (any, error) {
		return c.fetch(shared)
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return subject.FlaggedSet{}, res.Err
		}
		return res.Val.(subject.FlaggedSet), nil
	case <-ctx.Done():
		return subject.FlaggedSet{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, ctx.Err())
	}
}

func (c *Cache) fetch(ctx context.Context) (subject.FlaggedSet, error) {
	ctx, span := tracer.Start(ctx, "Cache.fetch")
	defer span.End()

	subjects, err := c.provider.FetchSubjects(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider failed")
		if errors.Is(err, context.Canceled) {
			c.tel.ReportDebug(report_cache_load, err)
		} else {
			c.tel.ReportBroken(report_cache_load, err)
		}
		return subject.FlaggedSet{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	set := subject.NewFlaggedSet(subjects)
	span.SetAttributes(attribute.Int("aags.subjects", set.Len()))
	if set.Len() == 0 {
		c.tel.ReportWarning(report_cache_load, ErrEmptyList)
		return subject.FlaggedSet{}, ErrEmptyList
	}

	c.entries.Add(c.key, entry{set: set, loadedAt: c.now()})
	c.tel.ReportCount(report_cache_subjects, int64(set.Len()))
	return set, nil
}

// Result loads the set and reports it in the extension's message shape.
func (c *Cache) Result(ctx context.Context) Result {
	set, err := c.Load(ctx)
	return ResultOf(set.Subjects(), err)
}
