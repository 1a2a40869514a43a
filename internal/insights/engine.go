// Package insights computes summary aggregates over a set of canonical
// records: per-year counts, top entities, spending series, issue and
// government-entity distributions, and a deterministic set of narrative
// sentences. It never re-queries an upstream — the records it is handed are
// all it looks at.
package insights

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
)

// YearCount is the number of records observed in one year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// NameCount is how often one entity name appeared.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// YearAmount is the summed monetary amount for one year.
type YearAmount struct {
	Year   int             `json:"year"`
	Amount decimal.Decimal `json:"amount"`
}

// TopicCount is the number of activity items filed under one issue area.
type TopicCount struct {
	Code  string `json:"topic_code"`
	Label string `json:"topic_label,omitempty"`
	Count int    `json:"count"`
}

// EntityCount is how often one government entity was named in activities.
type EntityCount struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Count int    `json:"count"`
}

// Insights is the full aggregate package handed to the chart-rendering
// layer.
type Insights struct {
	RecordCount       int           `json:"record_count"`
	ByYear            []YearCount   `json:"by_year"`
	TopCounterparties []NameCount   `json:"top_counterparties"`
	TopFilers         []NameCount   `json:"top_filers"`
	SpendingSeries    []YearAmount  `json:"spending_series,omitempty"`
	IssueDistribution []TopicCount  `json:"issue_distribution"`
	EntityCounts      []EntityCount `json:"government_entity_counts"`
	Narrative         []string      `json:"narrative"`
}

// Engine computes insights with a configured top-N size.
type Engine struct {
	topN int
}

// NewEngine returns an Engine keeping the n most frequent names in the
// top-counterparty and top-filer lists.
func NewEngine(n int) *Engine {
	if n < 1 {
		n = 10
	}
	return &Engine{topN: n}
}

// Summarize aggregates records into Insights. An empty input yields empty
// aggregates, never an error. Years with no records are simply absent from
// ByYear and SpendingSeries — the charting layer decides whether to
// interpolate. SpendingSeries is omitted entirely unless at least one record
// carries an amount; records without an amount are excluded from sums, not
// counted as zero.
func (e *Engine) Summarize(records []record.Record) Insights {
	ins := Insights{
		RecordCount:       len(records),
		ByYear:            []YearCount{},
		TopCounterparties: []NameCount{},
		TopFilers:         []NameCount{},
		IssueDistribution: []TopicCount{},
		EntityCounts:      []EntityCount{},
		Narrative:         []string{},
	}
	if len(records) == 0 {
		return ins
	}

	byYear := map[int]int{}
	spending := map[int]decimal.Decimal{}
	hasAmount := false
	counterparties := newTally()
	filers := newTally()
	topics := newTally()
	topicLabels := map[string]string{}
	entities := newTally()
	entityTypes := map[string]string{}

	for _, r := range records {
		byYear[r.PeriodYear]++
		if r.Amount != nil {
			hasAmount = true
			spending[r.PeriodYear] = spending[r.PeriodYear].Add(*r.Amount)
		}
		counterparties.add(r.Counterparty.Name)
		filers.add(r.Filer.Name)
		for _, act := range r.Activities {
			if r.Kind == record.KindDisclosureFiling && act.TopicCode != "" {
				topics.add(act.TopicCode)
				if _, ok := topicLabels[strings.ToLower(act.TopicCode)]; !ok {
					topicLabels[strings.ToLower(act.TopicCode)] = act.TopicLabel
				}
			}
			for _, ent := range act.Entities {
				key := ent.Name + "\x00" + ent.Type
				entities.add(key)
				entityTypes[strings.ToLower(key)] = ent.Type
			}
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		ins.ByYear = append(ins.ByYear, YearCount{Year: y, Count: byYear[y]})
	}

	if hasAmount {
		spendYears := make([]int, 0, len(spending))
		for y := range spending {
			spendYears = append(spendYears, y)
		}
		sort.Ints(spendYears)
		for _, y := range spendYears {
			ins.SpendingSeries = append(ins.SpendingSeries, YearAmount{Year: y, Amount: spending[y]})
		}
	}

	for _, nc := range counterparties.top(e.topN) {
		ins.TopCounterparties = append(ins.TopCounterparties, nc)
	}
	for _, nc := range filers.top(e.topN) {
		ins.TopFilers = append(ins.TopFilers, nc)
	}
	for _, nc := range topics.top(len(topics.counts)) {
		ins.IssueDistribution = append(ins.IssueDistribution, TopicCount{
			Code:  nc.Name,
			Label: topicLabels[strings.ToLower(nc.Name)],
			Count: nc.Count,
		})
	}
	for _, nc := range entities.top(len(entities.counts)) {
		name, _, _ := strings.Cut(nc.Name, "\x00")
		ins.EntityCounts = append(ins.EntityCounts, EntityCount{
			Name:  name,
			Type:  entityTypes[strings.ToLower(nc.Name)],
			Count: nc.Count,
		})
	}

	ins.Narrative = narrate(ins)
	return ins
}

// tally counts casefolded names while remembering the first-encountered
// spelling and insertion order, which breaks ties deterministically.
type tally struct {
	counts  map[string]int
	display map[string]string
	order   map[string]int
	next    int
}

func newTally() *tally {
	return &tally{
		counts:  map[string]int{},
		display: map[string]string{},
		order:   map[string]int{},
	}
}

func (t *tally) add(name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	key := strings.ToLower(name)
	if _, seen := t.counts[key]; !seen {
		t.display[key] = name
		t.order[key] = t.next
		t.next++
	}
	t.counts[key]++
}

// top returns the n most frequent names, ties broken by first-encountered
// order.
func (t *tally) top(n int) []NameCount {
	keys := make([]string, 0, len(t.counts))
	for k := range t.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := t.counts[keys[i]], t.counts[keys[j]]
		if ci != cj {
			return ci > cj
		}
		return t.order[keys[i]] < t.order[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	result := make([]NameCount, 0, len(keys))
	for _, k := range keys {
		result = append(result, NameCount{Name: t.display[k], Count: t.counts[k]})
	}
	return result
}
