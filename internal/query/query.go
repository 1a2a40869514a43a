// Package query defines the caller-facing search parameters, their
// normalisation rules, and the deterministic fingerprint used as the cache
// key.
package query

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
)

// SearchType selects which name field a search matches against. The lobbying
// sources support registrant/client/lobbyist; the contracts source supports
// vendor/agency.
type SearchType string

const (
	SearchRegistrant SearchType = "registrant"
	SearchClient     SearchType = "client"
	SearchLobbyist   SearchType = "lobbyist"
	SearchVendor     SearchType = "vendor"
	SearchAgency     SearchType = "agency"
)

// Filters narrow a search. All populated filters apply as an intersection:
// a record must satisfy every one of them to appear in the envelope.
type Filters struct {
	FilingType       string           `json:"filing_type,omitempty"`
	FilingYear       int              `json:"filing_year,omitempty"`
	YearFrom         int              `json:"year_from,omitempty"`
	YearTo           int              `json:"year_to,omitempty"`
	IssueArea        string           `json:"issue_area,omitempty"`
	GovernmentEntity string           `json:"government_entity,omitempty"`
	AmountMin        *decimal.Decimal `json:"amount_min,omitempty"`
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.FilingType == "" && f.FilingYear == 0 && f.YearFrom == 0 &&
		f.YearTo == 0 && f.IssueArea == "" && f.GovernmentEntity == "" &&
		f.AmountMin == nil
}

// Match applies the filters to a canonical record. Adapters use it to
// post-filter pages when a filter cannot be pushed into the upstream query
// language.
func (f Filters) Match(r record.Record) bool {
	if f.FilingYear != 0 && r.PeriodYear != f.FilingYear {
		return false
	}
	if f.YearFrom != 0 && r.PeriodYear < f.YearFrom {
		return false
	}
	if f.YearTo != 0 && r.PeriodYear > f.YearTo {
		return false
	}
	if f.AmountMin != nil {
		if r.Amount == nil || r.Amount.LessThan(*f.AmountMin) {
			return false
		}
	}
	if f.IssueArea != "" && !matchIssueArea(r, f.IssueArea) {
		return false
	}
	if f.GovernmentEntity != "" && !matchEntity(r, f.GovernmentEntity) {
		return false
	}
	return true
}

func matchIssueArea(r record.Record, area string) bool {
	area = strings.ToLower(area)
	for _, a := range r.Activities {
		if strings.ToLower(a.TopicCode) == area || strings.Contains(strings.ToLower(a.TopicLabel), area) {
			return true
		}
	}
	return false
}

func matchEntity(r record.Record, needle string) bool {
	needle = strings.ToLower(needle)
	for _, a := range r.Activities {
		for _, e := range a.Entities {
			if strings.Contains(strings.ToLower(e.Name), needle) {
				return true
			}
		}
	}
	return false
}

// Query is one search request against one data source.
type Query struct {
	Source   record.SourceID `json:"source_id"`
	Type     SearchType      `json:"search_type"`
	Text     string          `json:"query"`
	Filters  Filters         `json:"filters"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// Normalize trims and casefolds the query text and clamps pagination into
// the allowed window. Out-of-range page sizes clamp rather than error so a
// hostile or sloppy caller cannot fan the cache out with unbounded distinct
// keys. Normalisation happens before fingerprinting, so two logically
// identical requests always share a cache entry.
func (q Query) Normalize(defaultPageSize, maxPageSize int) Query {
	q.Text = strings.Join(strings.Fields(strings.ToLower(q.Text)), " ")
	q.Type = SearchType(strings.ToLower(strings.TrimSpace(string(q.Type))))
	q.Filters.FilingType = strings.ToLower(strings.TrimSpace(q.Filters.FilingType))
	q.Filters.IssueArea = strings.ToLower(strings.TrimSpace(q.Filters.IssueArea))
	q.Filters.GovernmentEntity = strings.ToLower(strings.TrimSpace(q.Filters.GovernmentEntity))
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}
