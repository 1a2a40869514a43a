package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/insights"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/orchestrator"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/query"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	apperrors "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/errors"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/health"
)

type stubCore struct {
	searchFn   func(ctx context.Context, q query.Query) (*record.Envelope, error)
	detailFn   func(ctx context.Context, source record.SourceID, rawRef string) (*record.Record, error)
	insightsFn func(ctx context.Context, q query.Query) (insights.Insights, bool, error)
	lastQuery  query.Query
}

func (s *stubCore) RunSearch(ctx context.Context, q query.Query) (*record.Envelope, error) {
	s.lastQuery = q
	return s.searchFn(ctx, q)
}

func (s *stubCore) FetchDetail(ctx context.Context, source record.SourceID, rawRef string) (*record.Record, error) {
	return s.detailFn(ctx, source, rawRef)
}

func (s *stubCore) RunInsights(ctx context.Context, q query.Query) (insights.Insights, bool, error) {
	s.lastQuery = q
	return s.insightsFn(ctx, q)
}

func (s *stubCore) Sources() []orchestrator.SourceInfo {
	return []orchestrator.SourceInfo{
		{ID: record.SourceFederal, SearchTypes: []string{"registrant", "client", "lobbyist"}},
	}
}

func newTestServer(t *testing.T, core Core) *httptest.Server {
	t.Helper()
	router := NewRouter(New(core), health.NewChecker(), nil, RouterOptions{RequestTimeout: time.Second})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode
}

func TestSearchEndpoint(t *testing.T) {
	core := &stubCore{
		searchFn: func(ctx context.Context, q query.Query) (*record.Envelope, error) {
			return &record.Envelope{
				Records:    []record.Record{{ID: "r1", Source: record.SourceFederal}},
				TotalCount: 47, Page: 2, PageSize: 25, TotalPages: 2,
				Source: record.SourceFederal,
			}, nil
		},
	}
	srv := newTestServer(t, core)

	var body struct {
		Success bool `json:"success"`
		Result  struct {
			TotalCount int `json:"total_count"`
			TotalPages int `json:"total_pages"`
		} `json:"result"`
	}
	status := getJSON(t, srv.URL+"/api/search?query=acme&search_type=client&data_source=federal&page=2&filing_year=2024", &body)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !body.Success || body.Result.TotalCount != 47 || body.Result.TotalPages != 2 {
		t.Errorf("body = %+v", body)
	}
	if core.lastQuery.Source != record.SourceFederal || core.lastQuery.Type != query.SearchClient {
		t.Errorf("parsed query = %+v", core.lastQuery)
	}
	if core.lastQuery.Filters.FilingYear != 2024 {
		t.Errorf("filing_year = %d", core.lastQuery.Filters.FilingYear)
	}
}

func TestSearchEndpointAllFilterIgnored(t *testing.T) {
	core := &stubCore{
		searchFn: func(ctx context.Context, q query.Query) (*record.Envelope, error) {
			return &record.Envelope{Records: []record.Record{}}, nil
		},
	}
	srv := newTestServer(t, core)
	if status := getJSON(t, srv.URL+"/api/search?query=acme&data_source=federal&filing_year=all&filing_type=all", new(map[string]any)); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !core.lastQuery.Filters.Empty() {
		t.Errorf(`"all" filter values should parse as unset, got %+v`, core.lastQuery.Filters)
	}
}

func TestSearchEndpointErrorShape(t *testing.T) {
	core := &stubCore{
		searchFn: func(ctx context.Context, q query.Query) (*record.Envelope, error) {
			return nil, apperrors.New(apperrors.ErrEmptyQuery, http.StatusBadRequest, "query text must not be blank")
		},
	}
	srv := newTestServer(t, core)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	status := getJSON(t, srv.URL+"/api/search?data_source=federal", &body)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if body.Success || body.Error != "query text must not be blank" {
		t.Errorf("body = %+v", body)
	}
}

func TestSearchEndpointUpstreamFailure(t *testing.T) {
	core := &stubCore{
		searchFn: func(ctx context.Context, q query.Query) (*record.Envelope, error) {
			return nil, apperrors.ErrUpstreamUnavailable
		},
	}
	srv := newTestServer(t, core)
	status := getJSON(t, srv.URL+"/api/search?query=acme&data_source=federal", new(map[string]any))
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", status)
	}
}

func TestDetailEndpoint(t *testing.T) {
	core := &stubCore{
		detailFn: func(ctx context.Context, source record.SourceID, rawRef string) (*record.Record, error) {
			if source != record.SourceFederal || rawRef != "abc-123" {
				t.Errorf("detail args = %s %s", source, rawRef)
			}
			return &record.Record{ID: "abc-123", Source: source}, nil
		},
	}
	srv := newTestServer(t, core)

	var body struct {
		Success bool `json:"success"`
		Record  struct {
			ID string `json:"record_id"`
		} `json:"record"`
	}
	status := getJSON(t, srv.URL+"/api/filings/federal/abc-123", &body)
	if status != http.StatusOK || !body.Success || body.Record.ID != "abc-123" {
		t.Errorf("status=%d body=%+v", status, body)
	}
}

func TestDetailEndpointNotFound(t *testing.T) {
	core := &stubCore{
		detailFn: func(ctx context.Context, source record.SourceID, rawRef string) (*record.Record, error) {
			return nil, apperrors.ErrNotFound
		},
	}
	srv := newTestServer(t, core)
	status := getJSON(t, srv.URL+"/api/filings/federal/nope", new(map[string]any))
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestInsightsEndpoint(t *testing.T) {
	core := &stubCore{
		insightsFn: func(ctx context.Context, q query.Query) (insights.Insights, bool, error) {
			return insights.Insights{RecordCount: 3, Narrative: []string{"Activity increased."}}, true, nil
		},
	}
	srv := newTestServer(t, core)

	var body struct {
		Success  bool `json:"success"`
		Degraded bool `json:"degraded"`
		Insights struct {
			RecordCount int `json:"record_count"`
		} `json:"insights"`
	}
	status := getJSON(t, srv.URL+"/api/insights?query=acme&data_source=federal", &body)
	if status != http.StatusOK || !body.Success {
		t.Fatalf("status=%d body=%+v", status, body)
	}
	if !body.Degraded || body.Insights.RecordCount != 3 {
		t.Errorf("body = %+v", body)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	core := &stubCore{}
	srv := newTestServer(t, core)

	var body struct {
		Success bool `json:"success"`
		Sources []struct {
			ID string `json:"id"`
		} `json:"sources"`
	}
	status := getJSON(t, srv.URL+"/api/sources", &body)
	if status != http.StatusOK || !body.Success || len(body.Sources) != 1 {
		t.Fatalf("status=%d body=%+v", status, body)
	}
	if body.Sources[0].ID != "federal" {
		t.Errorf("sources = %+v", body.Sources)
	}
}

func TestExportEndpoint(t *testing.T) {
	filedAt := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	core := &stubCore{
		searchFn: func(ctx context.Context, q query.Query) (*record.Envelope, error) {
			return &record.Envelope{
				Records: []record.Record{{
					ID:           "r1",
					Kind:         record.KindDisclosureFiling,
					Source:       record.SourceFederal,
					PeriodYear:   2024,
					Filer:        record.Party{Name: "Capitol Strategies"},
					Counterparty: record.Party{Name: "Acme Corp"},
					FiledAt:      &filedAt,
					Activities: []record.Activity{{
						TopicLabel: "Health Issues",
						Entities:   []record.GovernmentEntity{{Name: "Dept of Health"}},
					}},
				}},
				TotalCount: 1, Degraded: true,
			}, nil
		},
	}
	srv := newTestServer(t, core)

	resp, err := http.Get(srv.URL + "/api/export?query=acme&data_source=federal")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/csv" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := resp.Header.Get("X-Degraded-Result"); got != "true" {
		t.Errorf("X-Degraded-Result = %q, want true", got)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rows, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1 record", len(rows))
	}
	row := rows[1]
	if row[0] != "r1" || row[5] != "Capitol Strategies" || row[6] != "Acme Corp" {
		t.Errorf("row = %v", row)
	}
	if row[9] != "2024-07-15" {
		t.Errorf("filed_at = %q", row[9])
	}
	if row[10] != "Health Issues" || row[11] != "Dept of Health" {
		t.Errorf("issues/entities = %q / %q", row[10], row[11])
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	core := &stubCore{
		searchFn: func(ctx context.Context, q query.Query) (*record.Envelope, error) {
			return &record.Envelope{Records: []record.Record{}}, nil
		},
	}
	srv := newTestServer(t, core)
	resp, err := http.Get(srv.URL + "/api/search?query=acme&data_source=federal")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubCore{})
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}
}

func TestRequestTimeoutDeadlineOnContext(t *testing.T) {
	var deadlineSet bool
	core := &stubCore{
		searchFn: func(ctx context.Context, q query.Query) (*record.Envelope, error) {
			_, deadlineSet = ctx.Deadline()
			return &record.Envelope{Records: []record.Record{}, Page: 1, PageSize: 25}, nil
		},
	}
	router := NewRouter(New(core), health.NewChecker(), nil, RouterOptions{RequestTimeout: 250 * time.Millisecond})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/search?query=acme&search_type=client&data_source=federal")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !deadlineSet {
		t.Error("handler context should carry the request timeout deadline")
	}
}
