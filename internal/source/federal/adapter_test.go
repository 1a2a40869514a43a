package federal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/query"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	apperrors "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/errors"
)

const sampleFiling = `{
	"filing_uuid": "abc-123",
	"filing_year": 2024,
	"filing_period_display": "Q2",
	"filing_document_url": "https://example.gov/doc/abc-123",
	"dt_posted": "2024-07-15T10:30:00",
	"income": "150000.00",
	"registrant": {
		"name": "Capitol Strategies LLC",
		"description": "Lobbying firm",
		"address_1": "123 K St NW",
		"city": "Washington",
		"state": "DC",
		"contact_name": "Jane Doe"
	},
	"client": {"name": "Acme Corp", "general_description": "Manufacturing"},
	"lobbying_activities": [{
		"general_issue_code": "HCR",
		"general_issue_code_display": "Health Issues",
		"description": "Drug pricing reform",
		"government_entities": [{"name": "Dept of Health", "type": "agency"}],
		"lobbyists": [{"lobbyist": {"first_name": "John", "last_name": "Smith"}, "covered_position": "N/A"}]
	}]
}`

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-key", time.Second, nil)
}

func TestSearchMapsFilings(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("client_name"); got != "acme corp" {
			t.Errorf("client_name = %q, want acme corp", got)
		}
		if r.URL.Path != "/filings/" {
			t.Errorf("path = %q, want /filings/", r.URL.Path)
		}
		fmt.Fprintf(w, `{"count": 1, "results": [%s]}`, sampleFiling)
	})

	env, err := adapter.Search(context.Background(), query.Query{
		Source: record.SourceFederal, Type: query.SearchClient, Text: "acme corp", Page: 1, PageSize: 25,
	})
	if err != nil {
		t.Fatal(err)
	}
	if env.TotalCount != 1 || len(env.Records) != 1 {
		t.Fatalf("envelope = %+v, want one record", env)
	}

	rec := env.Records[0]
	if rec.ID != "abc-123" || rec.RawRef != "abc-123" {
		t.Errorf("ID/RawRef = %q/%q, want abc-123", rec.ID, rec.RawRef)
	}
	if rec.Kind != record.KindDisclosureFiling || rec.Source != record.SourceFederal {
		t.Errorf("kind/source = %s/%s", rec.Kind, rec.Source)
	}
	if rec.PeriodYear != 2024 || rec.PeriodLabel != "Q2" {
		t.Errorf("period = %d %q", rec.PeriodYear, rec.PeriodLabel)
	}
	if rec.Filer.Name != "Capitol Strategies LLC" || rec.Counterparty.Name != "Acme Corp" {
		t.Errorf("parties = %q / %q", rec.Filer.Name, rec.Counterparty.Name)
	}
	if rec.Filer.Address != "123 K St NW, Washington, DC" {
		t.Errorf("address = %q", rec.Filer.Address)
	}
	if rec.Amount == nil || rec.Amount.String() != "150000" || rec.AmountKind != record.AmountIncome {
		t.Errorf("amount = %v kind %s, want 150000 income", rec.Amount, rec.AmountKind)
	}
	if len(rec.Activities) != 1 {
		t.Fatalf("activities = %+v", rec.Activities)
	}
	act := rec.Activities[0]
	if act.TopicCode != "HCR" || act.TopicLabel != "Health Issues" {
		t.Errorf("topic = %q %q", act.TopicCode, act.TopicLabel)
	}
	if len(act.Individuals) != 1 || act.Individuals[0].Name != "John Smith" {
		t.Errorf("individuals = %+v, want John Smith", act.Individuals)
	}
	if len(act.Entities) != 1 || act.Entities[0].Name != "Dept of Health" {
		t.Errorf("entities = %+v", act.Entities)
	}
	if rec.FiledAt == nil || rec.FiledAt.Year() != 2024 {
		t.Errorf("FiledAt = %v", rec.FiledAt)
	}
}

func TestSearchTypeParamSelection(t *testing.T) {
	tests := []struct {
		searchType query.SearchType
		param      string
	}{
		{query.SearchRegistrant, "registrant_name"},
		{query.SearchClient, "client_name"},
		{query.SearchLobbyist, "lobbyist_name"},
	}
	for _, tt := range tests {
		t.Run(string(tt.searchType), func(t *testing.T) {
			adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get(tt.param); got != "smith" {
					t.Errorf("%s = %q, want smith", tt.param, got)
				}
				fmt.Fprint(w, `{"count": 0, "results": []}`)
			})
			if _, err := adapter.Search(context.Background(), query.Query{
				Type: tt.searchType, Text: "smith", Page: 1, PageSize: 25,
			}); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestSearchPaginationMath(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"count": 47, "results": [%s]}`, sampleFiling)
	})
	env, err := adapter.Search(context.Background(), query.Query{
		Type: query.SearchClient, Text: "acme", Page: 2, PageSize: 25,
	})
	if err != nil {
		t.Fatal(err)
	}
	if env.TotalCount != 47 || env.TotalPages != 2 || env.Page != 2 {
		t.Errorf("total=%d pages=%d page=%d, want 47/2/2", env.TotalCount, env.TotalPages, env.Page)
	}
}

func TestSearchPastEndPageProbesTotal(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" && r.URL.Query().Get("page_size") == "1" {
			fmt.Fprint(w, `{"count": 47, "results": [{}]}`)
			return
		}
		// The LDA API 404s on pages past the end of the result set.
		http.Error(w, `{"detail": "Invalid page."}`, http.StatusNotFound)
	})
	env, err := adapter.Search(context.Background(), query.Query{
		Type: query.SearchClient, Text: "acme", Page: 9, PageSize: 25,
	})
	if err != nil {
		t.Fatalf("past-end page should not error: %v", err)
	}
	if len(env.Records) != 0 {
		t.Errorf("records = %d, want 0", len(env.Records))
	}
	if env.TotalCount != 47 || env.Page != 9 {
		t.Errorf("total=%d page=%d, want 47/9", env.TotalCount, env.Page)
	}
}

func TestSearchPostFiltersYearRange(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"count": 2, "results": [%s, {"filing_uuid": "old-1", "filing_year": 2019}]}`, sampleFiling)
	})
	env, err := adapter.Search(context.Background(), query.Query{
		Type: query.SearchClient, Text: "acme", Page: 1, PageSize: 25,
		Filters: query.Filters{YearFrom: 2023},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(env.Records) != 1 || env.Records[0].ID != "abc-123" {
		t.Errorf("records = %+v, want only the 2024 filing", env.Records)
	}
	// Whole result set fetched, so the total is the exact filtered count.
	if env.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", env.TotalCount)
	}
}

func TestSearchNativeFilterPushdown(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filing_year"); got != "2024" {
			t.Errorf("filing_year = %q, want 2024", got)
		}
		if got := r.URL.Query().Get("filing_type"); got != "q2" {
			t.Errorf("filing_type = %q, want q2", got)
		}
		fmt.Fprintf(w, `{"count": 1, "results": [%s]}`, sampleFiling)
	})
	env, err := adapter.Search(context.Background(), query.Query{
		Type: query.SearchClient, Text: "acme", Page: 1, PageSize: 25,
		Filters: query.Filters{FilingYear: 2024, FilingType: "q2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Pushed-down filters must not be re-applied to the page.
	if len(env.Records) != 1 {
		t.Errorf("records = %d, want 1", len(env.Records))
	}
}

func TestSearchDegenerateFields(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		// Nulls and wrong-typed fields everywhere.
		fmt.Fprint(w, `{"count": 1, "results": [{
			"filing_uuid": "x-1",
			"filing_year": "not a number",
			"dt_posted": "2021-03-01",
			"income": null,
			"expenses": {"weird": true},
			"registrant": null,
			"client": "not an object",
			"lobbying_activities": "not a list"
		}]}`)
	})
	env, err := adapter.Search(context.Background(), query.Query{
		Type: query.SearchClient, Text: "acme", Page: 1, PageSize: 25,
	})
	if err != nil {
		t.Fatalf("degenerate payload should map, not fail: %v", err)
	}
	rec := env.Records[0]
	if rec.ID != "x-1" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.PeriodYear != 2021 {
		t.Errorf("PeriodYear = %d, want 2021 from dt_posted fallback", rec.PeriodYear)
	}
	if rec.Amount != nil {
		t.Errorf("Amount = %v, want nil", rec.Amount)
	}
	if rec.Activities == nil {
		t.Error("Activities must be empty, not nil")
	}
}

func TestSearchUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"server error is transient", http.StatusInternalServerError, apperrors.ErrUpstreamTransient},
		{"rate limit is transient", http.StatusTooManyRequests, apperrors.ErrUpstreamTransient},
		{"bad request is invalid input", http.StatusBadRequest, apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := adapter.Search(context.Background(), query.Query{
				Type: query.SearchClient, Text: "acme", Page: 1, PageSize: 25,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchDetail(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/filings/abc-123/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, sampleFiling)
	})
	rec, err := adapter.FetchDetail(context.Background(), "abc-123")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "abc-123" || rec.Counterparty.Name != "Acme Corp" {
		t.Errorf("rec = %+v", rec)
	}
}

func TestFetchDetailNotFound(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := adapter.FetchDetail(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestPing(t *testing.T) {
	var path, size string
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		size = r.URL.Query().Get("page_size")
		fmt.Fprint(w, `{"count": 12, "results": []}`)
	})
	if err := adapter.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if path != "/filings/" || size != "1" {
		t.Errorf("probe hit %s with page_size=%s, want a one-row /filings/ page", path, size)
	}

	down := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if err := down.Ping(context.Background()); !errors.Is(err, apperrors.ErrUpstreamTransient) {
		t.Errorf("err = %v, want transient upstream error", err)
	}
}
