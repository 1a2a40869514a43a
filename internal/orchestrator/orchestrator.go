// Package orchestrator dispatches user queries to the selected source
// adapter through the cache and resilience layers and assembles the
// paginated result envelope the API layer returns.
package orchestrator

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/analytics"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/cache"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/insights"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/query"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/source"
	apperrors "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/errors"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/logger"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/metrics"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/resilience"
)

// Options configures an Orchestrator.
type Options struct {
	// TTLs holds the per-source cache TTL. Sources default to an hour when
	// absent.
	TTLs map[record.SourceID]time.Duration
	// BrowseAll lists the (source, search type) pairs allowed to run with
	// an empty query text.
	BrowseAll map[BrowseKey]bool
	// Retry is the upstream retry policy.
	Retry resilience.RetryConfig
	// Deadline bounds one resolved search end to end. Zero disables it.
	Deadline time.Duration
	// AttemptTimeout bounds a single upstream attempt inside the retry
	// loop, composing with Deadline. Zero disables it.
	AttemptTimeout time.Duration
	// DefaultPageSize and MaxPageSize bound pagination before
	// fingerprinting.
	DefaultPageSize int
	MaxPageSize     int
	// InsightFetchSize is the page size used when fetching records for the
	// insight engine.
	InsightFetchSize int
}

// BrowseKey identifies one (source, search type) pair for browse-all
// configuration.
type BrowseKey struct {
	Source record.SourceID
	Type   query.SearchType
}

// Orchestrator resolves searches against a fixed set of source adapters.
type Orchestrator struct {
	adapters  map[record.SourceID]source.Adapter
	cache     *cache.Cache
	engine    *insights.Engine
	collector *analytics.Collector
	opts      Options
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New builds an Orchestrator. collector and m may be nil.
func New(adapters []source.Adapter, c *cache.Cache, engine *insights.Engine, collector *analytics.Collector, m *metrics.Metrics, opts Options) *Orchestrator {
	if opts.DefaultPageSize < 1 {
		opts.DefaultPageSize = 25
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = 200
	}
	if opts.InsightFetchSize < 1 {
		opts.InsightFetchSize = 100
	}
	byID := make(map[record.SourceID]source.Adapter, len(adapters))
	for _, a := range adapters {
		byID[a.ID()] = a
	}
	return &Orchestrator{
		adapters:  byID,
		cache:     c,
		engine:    engine,
		collector: collector,
		opts:      opts,
		metrics:   m,
		logger:    logger.WithComponent("orchestrator"),
	}
}

// RunSearch validates and normalises a query, then resolves it through the
// cache with a resilience-wrapped adapter call. The returned envelope's
// Degraded flag is set when an expired cache entry was served because the
// fresh fetch failed; Elapsed covers the whole resolved call, cache hits
// included.
func (o *Orchestrator) RunSearch(ctx context.Context, q query.Query) (*record.Envelope, error) {
	start := time.Now()

	adapter, ok := o.adapters[q.Source]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownSource, http.StatusBadRequest, "no such data source %q", q.Source)
	}
	q = q.Normalize(o.opts.DefaultPageSize, o.opts.MaxPageSize)
	if !adapter.Supports(q.Type) {
		return nil, apperrors.Newf(apperrors.ErrUnsupportedSearchType, http.StatusBadRequest,
			"source %q does not support %q searches", q.Source, q.Type)
	}
	if strings.TrimSpace(q.Text) == "" && !o.opts.BrowseAll[BrowseKey{Source: q.Source, Type: q.Type}] {
		return nil, apperrors.New(apperrors.ErrEmptyQuery, http.StatusBadRequest, "query text must not be blank")
	}

	if o.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Deadline)
		defer cancel()
	}

	fp := q.Fingerprint()
	envelope, outcome, err := o.cache.GetOrCompute(ctx, fp, o.ttl(q.Source), func(ctx context.Context) (*record.Envelope, error) {
		var result *record.Envelope
		retryErr := resilience.Retry(ctx, "search:"+string(q.Source), o.opts.Retry, func() error {
			o.countRetry(q.Source)
			return resilience.WithTimeout(ctx, o.opts.AttemptTimeout, "search:"+string(q.Source), func(ctx context.Context) error {
				var searchErr error
				result, searchErr = adapter.Search(ctx, q)
				return searchErr
			})
		})
		if retryErr != nil {
			return nil, retryErr
		}
		return result, nil
	})

	elapsed := time.Since(start)
	if err != nil {
		o.observe(q.Source, "error", elapsed, 0)
		o.track(q, elapsed, "error", 0, false)
		return nil, err
	}

	// Envelopes in the cache are shared between callers; stamp the
	// per-request fields on a copy.
	out := *envelope
	out.Degraded = outcome == cache.OutcomeStale
	out.Elapsed = elapsed
	if out.Degraded && o.metrics != nil {
		o.metrics.DegradedResponses.WithLabelValues(string(q.Source)).Inc()
	}
	o.observe(q.Source, outcome.String(), elapsed, len(out.Records))
	o.track(q, elapsed, outcome.String(), out.TotalCount, out.Degraded)
	return &out, nil
}

// FetchDetail resolves one record by raw reference, cached under a detail
// fingerprint so repeated views do not re-fetch.
func (o *Orchestrator) FetchDetail(ctx context.Context, sourceID record.SourceID, rawRef string) (*record.Record, error) {
	adapter, ok := o.adapters[sourceID]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownSource, http.StatusBadRequest, "no such data source %q", sourceID)
	}
	if strings.TrimSpace(rawRef) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "record reference must not be blank")
	}

	if o.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Deadline)
		defer cancel()
	}

	fp := query.DetailFingerprint(string(sourceID), rawRef)
	envelope, _, err := o.cache.GetOrCompute(ctx, fp, o.ttl(sourceID), func(ctx context.Context) (*record.Envelope, error) {
		var rec *record.Record
		retryErr := resilience.Retry(ctx, "detail:"+string(sourceID), o.opts.Retry, func() error {
			o.countRetry(sourceID)
			return resilience.WithTimeout(ctx, o.opts.AttemptTimeout, "detail:"+string(sourceID), func(ctx context.Context) error {
				var fetchErr error
				rec, fetchErr = adapter.FetchDetail(ctx, rawRef)
				return fetchErr
			})
		})
		if retryErr != nil {
			return nil, retryErr
		}
		return &record.Envelope{
			Records:    []record.Record{*rec},
			TotalCount: 1,
			Page:       1,
			PageSize:   1,
			TotalPages: 1,
			Source:     sourceID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(envelope.Records) == 0 {
		return nil, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "record %s not found in %s", rawRef, sourceID)
	}
	rec := envelope.Records[0]
	return &rec, nil
}

// RunInsights re-runs the search with the insight fetch size and summarises
// the resulting records. The boolean reports whether the underlying fetch
// was served degraded.
func (o *Orchestrator) RunInsights(ctx context.Context, q query.Query) (insights.Insights, bool, error) {
	q.Page = 1
	q.PageSize = o.opts.InsightFetchSize
	envelope, err := o.RunSearch(ctx, q)
	if err != nil {
		return insights.Insights{}, false, err
	}
	return o.engine.Summarize(envelope.Records), envelope.Degraded, nil
}

// Sources describes the configured sources for the API's discovery endpoint.
func (o *Orchestrator) Sources() []SourceInfo {
	infos := make([]SourceInfo, 0, len(o.adapters))
	for id, adapter := range o.adapters {
		info := SourceInfo{ID: id, CacheTTL: o.ttl(id).String()}
		for _, t := range []query.SearchType{
			query.SearchRegistrant, query.SearchClient, query.SearchLobbyist,
			query.SearchVendor, query.SearchAgency,
		} {
			if !adapter.Supports(t) {
				continue
			}
			info.SearchTypes = append(info.SearchTypes, string(t))
			if o.opts.BrowseAll[BrowseKey{Source: id, Type: t}] {
				info.BrowseAllTypes = append(info.BrowseAllTypes, string(t))
			}
		}
		infos = append(infos, info)
	}
	// Stable order for the API response.
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// SourceInfo is one configured source as reported by the discovery endpoint.
type SourceInfo struct {
	ID             record.SourceID `json:"id"`
	SearchTypes    []string        `json:"search_types"`
	CacheTTL       string          `json:"cache_ttl"`
	BrowseAllTypes []string        `json:"browse_all_types,omitempty"`
}

func (o *Orchestrator) ttl(id record.SourceID) time.Duration {
	if ttl, ok := o.opts.TTLs[id]; ok && ttl > 0 {
		return ttl
	}
	return time.Hour
}

func (o *Orchestrator) countRetry(id record.SourceID) {
	if o.metrics != nil {
		o.metrics.RetryAttemptsTotal.WithLabelValues(string(id)).Inc()
	}
}

func (o *Orchestrator) observe(id record.SourceID, outcome string, elapsed time.Duration, results int) {
	if o.metrics == nil {
		return
	}
	o.metrics.SearchesTotal.WithLabelValues(string(id), outcome).Inc()
	o.metrics.SearchDuration.WithLabelValues(string(id)).Observe(elapsed.Seconds())
	if outcome != "error" {
		o.metrics.SearchResultsCount.WithLabelValues(string(id)).Observe(float64(results))
	}
}

func (o *Orchestrator) track(q query.Query, elapsed time.Duration, outcome string, total int, degraded bool) {
	if o.collector == nil {
		return
	}
	o.collector.Track(analytics.SearchEvent{
		Source:     string(q.Source),
		SearchType: string(q.Type),
		Query:      q.Text,
		Page:       q.Page,
		LatencyMs:  elapsed.Milliseconds(),
		Outcome:    outcome,
		TotalCount: total,
		Degraded:   degraded,
		Timestamp:  time.Now().UTC(),
	})
}
