// Package citycontracts adapts the city's contract open-data endpoint
// (Socrata) into the canonical record shape. The upstream takes SoQL filter
// parameters, paginates with $limit/$offset, and returns tabular JSON rows —
// one contract registration per row. Totals come from a separate COUNT(*)
// query.
package citycontracts

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

// Adapter searches city contract registrations.
type Adapter struct {
	baseURL string
	dataset string
	client  *source.Client
	logger  *slog.Logger
}

// New builds the contracts adapter. appToken raises the open-data rate limit
// when set (X-App-Token header). dataset is the contracts dataset id.
func New(baseURL, appToken, dataset string, timeout time.Duration, m *metrics.Metrics) *Adapter {
	headers := map[string]string{}
	if appToken != "" {
		headers["X-App-Token"] = appToken
	}
	return &Adapter{
		baseURL: trimSlash(baseURL),
		dataset: dataset,
		client:  source.NewClient(record.SourceCityContracts, timeout, headers, m),
		logger:  logger.WithComponent("citycontracts-adapter"),
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func (a *Adapter) ID() record.SourceID { return record.SourceCityContracts }

func (a *Adapter) Supports(t query.SearchType) bool {
	switch t {
	case query.SearchVendor, query.SearchAgency:
		return true
	}
	return false
}

// Ping fetches a one-row dataset page to confirm the dataset is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("$limit", "1")
	var rows []map[string]any
	return a.client.GetJSON(ctx, fmt.Sprintf("%s/%s.json", a.baseURL, a.dataset), params, &rows)
}

// Search runs the two-query SoQL protocol: a COUNT(*) for the total, then
// the page itself with $limit/$offset computed from the 1-indexed page. The
// $order includes contract_id as a tiebreaker so repeated pagination through
// the same query sees a stable window even when end dates collide.
func (a *Adapter) Search(ctx context.Context, q query.Query) (*record.Envelope, error) {
	if !a.Supports(q.Type) {
		return nil, apperrors.Newf(apperrors.ErrUnsupportedSearchType, http.StatusBadRequest,
			"contracts source does not support %q searches", q.Type)
	}

	nameColumn := "vendor_name"
	if q.Type == query.SearchAgency {
		nameColumn = "agency_name"
	}
	where := soqlWhere(nameColumn, q.Text, q.Filters)
	endpoint := fmt.Sprintf("%s/%s.json", a.baseURL, a.dataset)

	countParams := url.Values{}
	countParams.Set("$where", where)
	countParams.Set("$select", "COUNT(*) AS count")
	var countRows []map[string]any
	if err := a.client.GetJSON(ctx, endpoint, countParams, &countRows); err != nil {
		return nil, err
	}
	total := 0
	if len(countRows) > 0 {
		total = source.Obj(countRows[0]).Int("count")
	}

	offset := (q.Page - 1) * q.PageSize
	if total == 0 || offset >= total {
		return record.EmptyEnvelope(record.SourceCityContracts, total, q.Page, q.PageSize), nil
	}

	pageParams := url.Values{}
	pageParams.Set("$where", where)
	pageParams.Set("$order", "end_date DESC, contract_id")
	pageParams.Set("$limit", strconv.Itoa(q.PageSize))
	pageParams.Set("$offset", strconv.Itoa(offset))
	var rows []map[string]any
	if err := a.client.GetJSON(ctx, endpoint, pageParams, &rows); err != nil {
		return nil, err
	}

	records := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapContract(source.Obj(row)))
	}

	// Everything except the issue area pushed down into SoQL.
	whole := q.Page == 1 && total <= q.PageSize
	records, total = source.ApplyPostFilters(records, postFilters(q.Filters), total, whole)

	return &record.Envelope{
		Records:    records,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: record.TotalPages(total, q.PageSize),
		Source:     record.SourceCityContracts,
	}, nil
}

func postFilters(f query.Filters) query.Filters {
	return query.Filters{IssueArea: f.IssueArea}
}

// FetchDetail looks one contract up by its contract_id.
func (a *Adapter) FetchDetail(ctx context.Context, rawRef string) (*record.Record, error) {
	if rawRef == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "empty contract reference")
	}
	params := url.Values{}
	params.Set("$where", fmt.Sprintf("contract_id='%s'", escapeSoQL(rawRef)))
	params.Set("$limit", "1")
	var rows []map[string]any
	if err := a.client.GetJSON(ctx, fmt.Sprintf("%s/%s.json", a.baseURL, a.dataset), params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: contract %s", apperrors.ErrNotFound, rawRef)
	}
	rec := mapContract(source.Obj(rows[0]))
	return &rec, nil
}
