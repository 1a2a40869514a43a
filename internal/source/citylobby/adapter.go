// Package citylobby adapts the city lobbying bureau's search API into the
// canonical record shape. The upstream is a token-authenticated REST service
// with one endpoint per search type and page/limit pagination; response rows
// are flat or shallowly nested and far less regular than the federal API's.
package citylobby

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/query"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/source"
	apperrors "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/errors"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/logger"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/metrics"
)

// Adapter searches city lobbying filings.
type Adapter struct {
	baseURL string
	client  *source.Client
	logger  *slog.Logger
}

// New builds the city lobbying adapter. token is sent as the Authorization
// bearer header when set.
func New(baseURL, token string, timeout time.Duration, m *metrics.Metrics) *Adapter {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Adapter{
		baseURL: trimSlash(baseURL),
		client:  source.NewClient(record.SourceCityLobbying, timeout, headers, m),
		logger:  logger.WithComponent("citylobby-adapter"),
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func (a *Adapter) ID() record.SourceID { return record.SourceCityLobbying }

func (a *Adapter) Supports(t query.SearchType) bool {
	switch t {
	case query.SearchRegistrant, query.SearchClient, query.SearchLobbyist:
		return true
	}
	return false
}

// Ping fetches a one-row lobbyist page to confirm the upstream is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("limit", "1")
	var payload any
	return a.client.GetJSON(ctx, a.baseURL+"/lobbyists", params, &payload)
}

// endpointFor maps a search type onto the upstream's per-type endpoints.
// Individual lobbyists are "principal officers" in the city system.
func endpointFor(t query.SearchType) string {
	switch t {
	case query.SearchClient:
		return "/clients"
	case query.SearchLobbyist:
		return "/principal-officers"
	default:
		return "/lobbyists"
	}
}

// Search queries the endpoint matching the search type. The upstream only
// does case-insensitive substring matching on searchTerms, which is the
// documented fallback for this source. filingYear and filingType are the
// only filters it understands natively; everything else post-filters the
// fetched page.
func (a *Adapter) Search(ctx context.Context, q query.Query) (*record.Envelope, error) {
	if !a.Supports(q.Type) {
		return nil, apperrors.Newf(apperrors.ErrUnsupportedSearchType, http.StatusBadRequest,
			"city lobbying source does not support %q searches", q.Type)
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.PageSize))
	params.Set("searchTerms", q.Text)
	if q.Filters.FilingYear != 0 {
		params.Set("filingYear", strconv.Itoa(q.Filters.FilingYear))
	}
	if q.Filters.FilingType != "" {
		params.Set("filingType", q.Filters.FilingType)
	}

	var payload any
	if err := a.client.GetJSON(ctx, a.baseURL+endpointFor(q.Type), params, &payload); err != nil {
		return nil, err
	}
	rows, total, reported, err := splitResponse(payload)
	if err != nil {
		return nil, err
	}
	if !reported {
		// Bare-array responses carry no total; the rows in hand plus the
		// pages already skipped are the best lower bound. An empty page
		// stays at zero rather than crediting pages that may not exist.
		total = len(rows)
		if len(rows) > 0 && q.Page > 1 {
			total += (q.Page - 1) * q.PageSize
		}
	}

	records := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapFiling(source.AsObj(row)))
	}

	// Post-filter counts are only exact when the upstream reported a total
	// and the first page covered all of it.
	whole := q.Page == 1 && reported && total <= q.PageSize
	records, total = source.ApplyPostFilters(records, postFilters(q.Filters), total, whole)

	return &record.Envelope{
		Records:    records,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: record.TotalPages(total, q.PageSize),
		Source:     record.SourceCityLobbying,
	}, nil
}

func postFilters(f query.Filters) query.Filters {
	f.FilingYear = 0
	f.FilingType = ""
	return f
}

// splitResponse accepts both shapes the upstream is known to produce: an
// object with a results list and a total, or a bare array of rows. The
// returned boolean reports whether the upstream actually stated a total;
// bare arrays (and envelopes missing every total key) leave the caller to
// estimate one.
func splitResponse(payload any) ([]any, int, bool, error) {
	switch v := payload.(type) {
	case []any:
		return v, len(v), false, nil
	case map[string]any:
		obj := source.Obj(v)
		rows := obj.List("results")
		if rows == nil {
			rows = obj.List("data")
		}
		if rows == nil {
			return nil, 0, false, fmt.Errorf("%w: source=%s: response has no result list", apperrors.ErrMapping, record.SourceCityLobbying)
		}
		total := obj.Int("total")
		if total == 0 {
			total = obj.Int("count")
		}
		if total == 0 {
			total = obj.Int("totalCount")
		}
		if total == 0 {
			return rows, len(rows), false, nil
		}
		if total < len(rows) {
			total = len(rows)
		}
		return rows, total, true, nil
	default:
		return nil, 0, false, fmt.Errorf("%w: source=%s: unexpected response shape", apperrors.ErrMapping, record.SourceCityLobbying)
	}
}

// FetchDetail fetches one filing by id.
func (a *Adapter) FetchDetail(ctx context.Context, rawRef string) (*record.Record, error) {
	if rawRef == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "empty filing reference")
	}
	var raw map[string]any
	if err := a.client.GetJSON(ctx, a.baseURL+"/filings/"+url.PathEscape(rawRef), nil, &raw); err != nil {
		return nil, err
	}
	rec := mapFiling(source.Obj(raw))
	if rec.Filer.Name == "" && rec.Counterparty.Name == "" {
		return nil, fmt.Errorf("%w: source=%s ref=%s", apperrors.ErrMapping, record.SourceCityLobbying, rawRef)
	}
	return &rec, nil
}
