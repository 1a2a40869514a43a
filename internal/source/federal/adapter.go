// Package federal adapts the Senate LDA (Lobbying Disclosure Act) API into
// the canonical record shape. The upstream is a key-authenticated REST
// endpoint with page-number pagination and deeply nested filing objects.
package federal

import (
	"context"
	"errors"
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

// Adapter searches federal lobbying disclosure filings.
type Adapter struct {
	baseURL string
	client  *source.Client
	logger  *slog.Logger
}

// New builds the federal adapter. apiKey is sent as the x-api-key header on
// every request.
func New(baseURL, apiKey string, timeout time.Duration, m *metrics.Metrics) *Adapter {
	return &Adapter{
		baseURL: trimSlash(baseURL),
		client: source.NewClient(record.SourceFederal, timeout, map[string]string{
			"x-api-key": apiKey,
		}, m),
		logger: logger.WithComponent("federal-adapter"),
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func (a *Adapter) ID() record.SourceID { return record.SourceFederal }

func (a *Adapter) Supports(t query.SearchType) bool {
	switch t {
	case query.SearchRegistrant, query.SearchClient, query.SearchLobbyist:
		return true
	}
	return false
}

// Ping fetches a one-row filing page to confirm the upstream is reachable
// and the API key is accepted.
func (a *Adapter) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("page_size", "1")
	var resp searchResponse
	return a.client.GetJSON(ctx, a.baseURL+"/filings/", params, &resp)
}

// searchResponse is the LDA list envelope: {"count": N, "results": [...]}.
type searchResponse struct {
	Count   int              `json:"count"`
	Results []map[string]any `json:"results"`
}

// Search queries /filings/ with the name parameter matching the search type.
// The LDA API supports fuzzy partial name matching natively, so the query
// text goes through unmodified. Filters the API cannot express (year range,
// issue area, entity substring, minimum amount) are applied to the fetched
// page afterwards.
func (a *Adapter) Search(ctx context.Context, q query.Query) (*record.Envelope, error) {
	if !a.Supports(q.Type) {
		return nil, apperrors.Newf(apperrors.ErrUnsupportedSearchType, http.StatusBadRequest,
			"federal source does not support %q searches", q.Type)
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	switch q.Type {
	case query.SearchRegistrant:
		params.Set("registrant_name", q.Text)
	case query.SearchClient:
		params.Set("client_name", q.Text)
	case query.SearchLobbyist:
		params.Set("lobbyist_name", q.Text)
	}
	if q.Filters.FilingYear != 0 {
		params.Set("filing_year", strconv.Itoa(q.Filters.FilingYear))
	}
	if q.Filters.FilingType != "" {
		params.Set("filing_type", q.Filters.FilingType)
	}

	var resp searchResponse
	err := a.client.GetJSON(ctx, a.baseURL+"/filings/", params, &resp)
	if err != nil {
		// The LDA API answers a page past the end with 404 instead of an
		// empty list. Probe for the true count so the envelope keeps it.
		if errors.Is(err, apperrors.ErrNotFound) && q.Page > 1 {
			total, probeErr := a.probeCount(ctx, params)
			if probeErr != nil {
				return nil, probeErr
			}
			return record.EmptyEnvelope(record.SourceFederal, total, q.Page, q.PageSize), nil
		}
		return nil, err
	}

	records := make([]record.Record, 0, len(resp.Results))
	for _, raw := range resp.Results {
		records = append(records, mapFiling(source.Obj(raw)))
	}

	whole := q.Page == 1 && resp.Count <= q.PageSize
	records, total := source.ApplyPostFilters(records, postFilters(q.Filters), resp.Count, whole)

	return &record.Envelope{
		Records:    records,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: record.TotalPages(total, q.PageSize),
		Source:     record.SourceFederal,
	}, nil
}

// postFilters strips the filters already pushed into the upstream query so
// they are not applied twice.
func postFilters(f query.Filters) query.Filters {
	f.FilingYear = 0
	f.FilingType = ""
	return f
}

func (a *Adapter) probeCount(ctx context.Context, params url.Values) (int, error) {
	probe := url.Values{}
	for k, v := range params {
		probe[k] = v
	}
	probe.Set("page", "1")
	probe.Set("page_size", "1")
	var resp searchResponse
	if err := a.client.GetJSON(ctx, a.baseURL+"/filings/", probe, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// FetchDetail fetches one filing by its upstream UUID.
func (a *Adapter) FetchDetail(ctx context.Context, rawRef string) (*record.Record, error) {
	if rawRef == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "empty filing reference")
	}
	var raw map[string]any
	if err := a.client.GetJSON(ctx, fmt.Sprintf("%s/filings/%s/", a.baseURL, url.PathEscape(rawRef)), nil, &raw); err != nil {
		return nil, err
	}
	rec := mapFiling(source.Obj(raw))
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: source=%s ref=%s", apperrors.ErrMapping, record.SourceFederal, rawRef)
	}
	return &rec, nil
}
