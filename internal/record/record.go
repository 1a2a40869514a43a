// Package record defines the canonical representation of one lobbying filing
// or one city contract. Every source adapter maps its upstream payload into
// this shape; everything downstream — pagination, caching, insights, export —
// only ever sees these types.
package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceID identifies which adapter produced a record.
type SourceID string

const (
	SourceFederal       SourceID = "federal"
	SourceCityLobbying  SourceID = "city_lobbying"
	SourceCityContracts SourceID = "city_contracts"
)

// Valid reports whether s names a known data source.
func (s SourceID) Valid() bool {
	switch s {
	case SourceFederal, SourceCityLobbying, SourceCityContracts:
		return true
	}
	return false
}

// Kind distinguishes disclosure filings from contract registrations.
type Kind string

const (
	KindDisclosureFiling Kind = "disclosure_filing"
	KindContract         Kind = "contract"
)

// AmountKind tags what a record's monetary amount means, since the three
// upstreams report money with different semantics.
type AmountKind string

const (
	AmountIncome          AmountKind = "income"
	AmountExpense         AmountKind = "expense"
	AmountContractCeiling AmountKind = "contract_ceiling"
)

// Party is the filer (registrant or vendor) or counterparty (client or
// contracting agency) on a record.
type Party struct {
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Address string `json:"address,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// GovernmentEntity is a government body named in a lobbying activity.
type GovernmentEntity struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Individual is a named person on an activity, typically a lobbyist.
type Individual struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Activity is one lobbying activity or contract purpose line.
type Activity struct {
	TopicCode   string             `json:"topic_code,omitempty"`
	TopicLabel  string             `json:"topic_label,omitempty"`
	Description string             `json:"description,omitempty"`
	Entities    []GovernmentEntity `json:"government_entities,omitempty"`
	Individuals []Individual       `json:"named_individuals,omitempty"`
}

// Record is the source-agnostic representation of one filing or contract.
//
// Invariants: ID is unique within a source; PeriodYear is always populated
// (adapters derive it from a fallback field when the primary one is absent);
// Activities is empty, never nil.
type Record struct {
	ID           string           `json:"record_id"`
	Kind         Kind             `json:"record_kind"`
	Source       SourceID         `json:"source_id"`
	PeriodYear   int              `json:"period_year"`
	PeriodLabel  string           `json:"period_label,omitempty"`
	Filer        Party            `json:"filer"`
	Counterparty Party            `json:"counterparty"`
	Amount       *decimal.Decimal `json:"monetary_amount,omitempty"`
	AmountKind   AmountKind       `json:"amount_kind,omitempty"`
	Activities   []Activity       `json:"activity_items"`
	FiledAt      *time.Time       `json:"filed_at,omitempty"`
	DocumentURL  string           `json:"document_url,omitempty"`
	RawRef       string           `json:"raw_reference"`
}

// Envelope is the paginated result package returned by a search. TotalCount
// reflects the upstream-reported (or post-filtered) total even when only one
// page of records is materialised. Degraded is set when the envelope was
// served from an expired cache entry because a fresh fetch failed.
type Envelope struct {
	Records    []Record      `json:"records"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	Elapsed    time.Duration `json:"elapsed"`
	Source     SourceID      `json:"source_id"`
	Degraded   bool          `json:"degraded"`
}

// EmptyEnvelope returns an envelope for a page past the end of the result
// set: no records, but the true total retained.
func EmptyEnvelope(source SourceID, total, page, pageSize int) *Envelope {
	return &Envelope{
		Records:    []Record{},
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
		Source:     source,
	}
}

// TotalPages returns the page count for a total at the given page size.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
