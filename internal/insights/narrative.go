package insights

import (
	"fmt"
)

// narrate derives the textual insight sentences from the computed
// aggregates. The sentences are a pure function of the aggregates and are
// emitted in a fixed order, so identical inputs always produce identical
// output.
func narrate(ins Insights) []string {
	sentences := []string{}

	if len(ins.ByYear) >= 2 {
		first := ins.ByYear[0]
		last := ins.ByYear[len(ins.ByYear)-1]
		switch {
		case first.Count == last.Count:
			sentences = append(sentences, fmt.Sprintf(
				"Activity was unchanged between %d and %d (%d records in each).",
				first.Year, last.Year, first.Count))
		case last.Count > first.Count:
			pct := (last.Count - first.Count) * 100 / first.Count
			sentences = append(sentences, fmt.Sprintf(
				"Activity increased %d%% between %d and %d (from %d to %d records).",
				pct, first.Year, last.Year, first.Count, last.Count))
		default:
			pct := (first.Count - last.Count) * 100 / first.Count
			sentences = append(sentences, fmt.Sprintf(
				"Activity decreased %d%% between %d and %d (from %d to %d records).",
				pct, first.Year, last.Year, first.Count, last.Count))
		}
	}

	if len(ins.TopCounterparties) > 0 && ins.RecordCount > 0 {
		top := ins.TopCounterparties[0]
		sentences = append(sentences, fmt.Sprintf(
			"%s appears most often as the counterparty, on %d of %d records.",
			top.Name, top.Count, ins.RecordCount))
	}

	if len(ins.SpendingSeries) > 0 {
		peak := ins.SpendingSeries[0]
		for _, ya := range ins.SpendingSeries[1:] {
			if ya.Amount.GreaterThan(peak.Amount) {
				peak = ya
			}
		}
		sentences = append(sentences, fmt.Sprintf(
			"Reported amounts peaked in %d at $%s.",
			peak.Year, peak.Amount.StringFixed(2)))
	}

	if len(ins.IssueDistribution) > 0 {
		top := ins.IssueDistribution[0]
		label := top.Label
		if label == "" {
			label = top.Code
		}
		sentences = append(sentences, fmt.Sprintf(
			"The most lobbied issue area is %s, named in %d activity items.",
			label, top.Count))
	}

	return sentences
}
