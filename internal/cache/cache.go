// Package cache memoises resolved search envelopes by query fingerprint. It
// layers TTL expiry, capacity-bounded LRU eviction, stale-on-error fallback,
// and a single-flight discipline over a pluggable entry store, so identical
// concurrent queries share one upstream fetch and an upstream outage can
// still be answered from an expired entry.
package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/logger"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/metrics"
)

// Entry is one cached envelope with the bookkeeping to judge freshness.
// Entries live only for the process lifetime (or the store's retention);
// nothing is ever a system of record.
type Entry struct {
	Envelope  *record.Envelope `json:"envelope"`
	FetchedAt time.Time        `json:"fetched_at"`
	TTL       time.Duration    `json:"ttl"`
}

// Fresh reports whether the entry is within its TTL at now.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Sub(e.FetchedAt) <= e.TTL
}

// Store holds cache entries. Get returns expired entries too — staleness is
// the cache's judgement, not the store's. Implementations bound their own
// retention.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Set(ctx context.Context, key string, entry *Entry)
}

// Outcome describes how a GetOrCompute call was resolved.
type Outcome int

const (
	// OutcomeHit means a fresh cached envelope was returned.
	OutcomeHit Outcome = iota
	// OutcomeComputed means the compute function ran and its result was
	// stored.
	OutcomeComputed
	// OutcomeStale means the compute function failed and an expired entry
	// was served instead. The orchestrator surfaces this as a degraded
	// result.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeComputed:
		return "computed"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Cache is the query result cache.
type Cache struct {
	store   Store
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New builds a Cache over the given store. metrics may be nil in tests.
func New(store Store, m *metrics.Metrics) *Cache {
	return &Cache{
		store:   store,
		metrics: m,
		logger:  logger.WithComponent("result-cache"),
		now:     time.Now,
	}
}

type resolved struct {
	envelope *record.Envelope
	outcome  Outcome
}

// GetOrCompute returns the envelope for key, computing it at most once per
// key across concurrent callers. A fresh entry short-circuits before the
// flight; inside the flight the entry is rechecked so followers of a
// completed fetch do not refetch. When computeFn fails and an expired entry
// survives in the store it is returned with OutcomeStale instead of the
// error; with nothing to fall back on the failure propagates.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	key string,
	ttl time.Duration,
	computeFn func(ctx context.Context) (*record.Envelope, error),
) (*record.Envelope, Outcome, error) {
	if entry, ok := c.store.Get(ctx, key); ok && entry.Fresh(c.now()) {
		c.hit()
		return entry.Envelope, OutcomeHit, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		if entry, ok := c.store.Get(ctx, key); ok && entry.Fresh(c.now()) {
			c.hit()
			return resolved{entry.Envelope, OutcomeHit}, nil
		}
		c.miss()
		envelope, err := computeFn(ctx)
		if err != nil {
			if entry, ok := c.store.Get(ctx, key); ok {
				c.logger.Warn("upstream fetch failed, serving stale entry",
					"key", key,
					"age", c.now().Sub(entry.FetchedAt),
					"error", err,
				)
				if c.metrics != nil {
					c.metrics.CacheStaleServes.Inc()
				}
				return resolved{entry.Envelope, OutcomeStale}, nil
			}
			return nil, err
		}
		c.store.Set(ctx, key, &Entry{
			Envelope:  envelope,
			FetchedAt: c.now(),
			TTL:       ttl,
		})
		return resolved{envelope, OutcomeComputed}, nil
	})
	if err != nil {
		return nil, OutcomeComputed, err
	}
	res := val.(resolved)
	return res.envelope, res.outcome, nil
}

func (c *Cache) hit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *Cache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
