package query

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint derives the deterministic cache key for a normalised query.
// The digest is computed from sorted key=value pairs, so neither parameter
// order nor input casing (removed by Normalize) can produce distinct keys
// for logically identical requests. Any differing filter value yields a
// different fingerprint.
func (q Query) Fingerprint() string {
	parts := []string{
		"source=" + string(q.Source),
		"type=" + string(q.Type),
		"text=" + q.Text,
		fmt.Sprintf("page=%d", q.Page),
		fmt.Sprintf("page_size=%d", q.PageSize),
	}
	if q.Filters.FilingType != "" {
		parts = append(parts, "filing_type="+q.Filters.FilingType)
	}
	if q.Filters.FilingYear != 0 {
		parts = append(parts, fmt.Sprintf("filing_year=%d", q.Filters.FilingYear))
	}
	if q.Filters.YearFrom != 0 {
		parts = append(parts, fmt.Sprintf("year_from=%d", q.Filters.YearFrom))
	}
	if q.Filters.YearTo != 0 {
		parts = append(parts, fmt.Sprintf("year_to=%d", q.Filters.YearTo))
	}
	if q.Filters.IssueArea != "" {
		parts = append(parts, "issue_area="+q.Filters.IssueArea)
	}
	if q.Filters.GovernmentEntity != "" {
		parts = append(parts, "government_entity="+q.Filters.GovernmentEntity)
	}
	if q.Filters.AmountMin != nil {
		parts = append(parts, "amount_min="+q.Filters.AmountMin.String())
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("search:%s:%x", q.Source, sum[:16])
}

// DetailFingerprint is the cache key for a single-record detail fetch.
func DetailFingerprint(source, rawRef string) string {
	sum := sha256.Sum256([]byte("detail|" + source + "|" + rawRef))
	return fmt.Sprintf("detail:%s:%x", source, sum[:16])
}
