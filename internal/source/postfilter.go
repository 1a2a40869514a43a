package source

import (
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/query"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
)

// ApplyPostFilters applies the filters an adapter could not push into its
// upstream query language to a fetched page, and reconciles the upstream
// total with what was removed. When the fetched page covered the whole
// result set the adjusted total is exact; otherwise it subtracts the
// removals observed on this page so the reported total never disagrees with
// the displayable set.
func ApplyPostFilters(recs []record.Record, f query.Filters, upstreamTotal int, wholeResultSet bool) ([]record.Record, int) {
	if f.Empty() {
		return recs, upstreamTotal
	}
	filtered := make([]record.Record, 0, len(recs))
	for _, r := range recs {
		if f.Match(r) {
			filtered = append(filtered, r)
		}
	}
	if wholeResultSet {
		return filtered, len(filtered)
	}
	total := upstreamTotal - (len(recs) - len(filtered))
	if total < len(filtered) {
		total = len(filtered)
	}
	return filtered, total
}
