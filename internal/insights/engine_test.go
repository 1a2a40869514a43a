package insights

import (
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
)

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func filing(year int, filer, counterparty string, amt *decimal.Decimal, topics ...string) record.Record {
	r := record.Record{
		Kind:         record.KindDisclosureFiling,
		PeriodYear:   year,
		Filer:        record.Party{Name: filer},
		Counterparty: record.Party{Name: counterparty},
		Amount:       amt,
	}
	for _, topic := range topics {
		r.Activities = append(r.Activities, record.Activity{TopicCode: topic})
	}
	return r
}

func TestSummarizeEmpty(t *testing.T) {
	ins := NewEngine(10).Summarize(nil)
	if ins.RecordCount != 0 {
		t.Errorf("RecordCount = %d, want 0", ins.RecordCount)
	}
	if len(ins.ByYear) != 0 || len(ins.TopCounterparties) != 0 || len(ins.Narrative) != 0 {
		t.Errorf("empty input should yield empty aggregates, got %+v", ins)
	}
	if ins.SpendingSeries != nil {
		t.Error("SpendingSeries should be absent for empty input")
	}
	// Aggregate slices marshal as [] rather than null.
	if ins.ByYear == nil || ins.Narrative == nil {
		t.Error("aggregate slices should be non-nil empty slices")
	}
}

func TestSummarizeByYearSparseAscending(t *testing.T) {
	records := []record.Record{
		filing(2024, "Firm A", "Client X", nil),
		filing(2021, "Firm A", "Client X", nil),
		filing(2024, "Firm B", "Client Y", nil),
	}
	ins := NewEngine(10).Summarize(records)
	want := []YearCount{{Year: 2021, Count: 1}, {Year: 2024, Count: 2}}
	if !reflect.DeepEqual(ins.ByYear, want) {
		t.Errorf("ByYear = %+v, want %+v (ascending, gap years absent)", ins.ByYear, want)
	}
}

func TestSummarizeTopCounterpartiesTieBreak(t *testing.T) {
	records := []record.Record{
		filing(2024, "Firm A", "Acme Corp", nil),
		filing(2024, "Firm A", "ACME CORP", nil), // casefolded into the same bucket
		filing(2024, "Firm B", "Beta LLC", nil),
		filing(2024, "Firm C", "Gamma Inc", nil),
	}
	ins := NewEngine(2).Summarize(records)
	if len(ins.TopCounterparties) != 2 {
		t.Fatalf("len = %d, want topN=2", len(ins.TopCounterparties))
	}
	if ins.TopCounterparties[0].Name != "Acme Corp" || ins.TopCounterparties[0].Count != 2 {
		t.Errorf("top[0] = %+v, want Acme Corp x2 with first-seen spelling", ins.TopCounterparties[0])
	}
	// Beta and Gamma tie at 1; first encountered wins.
	if ins.TopCounterparties[1].Name != "Beta LLC" {
		t.Errorf("top[1] = %+v, want Beta LLC by encounter order", ins.TopCounterparties[1])
	}
}

func TestSummarizeSpendingSeries(t *testing.T) {
	records := []record.Record{
		filing(2023, "Firm A", "Client X", amount(100000)),
		filing(2023, "Firm B", "Client Y", amount(50000)),
		filing(2024, "Firm A", "Client X", amount(200000)),
		filing(2024, "Firm C", "Client Z", nil), // no amount: excluded from sums
	}
	ins := NewEngine(10).Summarize(records)
	if len(ins.SpendingSeries) != 2 {
		t.Fatalf("SpendingSeries = %+v, want 2 years", ins.SpendingSeries)
	}
	if ins.SpendingSeries[0].Year != 2023 || !ins.SpendingSeries[0].Amount.Equal(decimal.NewFromInt(150000)) {
		t.Errorf("2023 sum = %+v, want 150000", ins.SpendingSeries[0])
	}
	if ins.SpendingSeries[1].Year != 2024 || !ins.SpendingSeries[1].Amount.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("2024 sum = %+v, want 200000", ins.SpendingSeries[1])
	}
}

func TestSummarizeNoAmountsOmitsSpendingSeries(t *testing.T) {
	ins := NewEngine(10).Summarize([]record.Record{
		filing(2024, "Firm A", "Client X", nil),
	})
	if ins.SpendingSeries != nil {
		t.Errorf("SpendingSeries = %+v, want omitted when no record has an amount", ins.SpendingSeries)
	}
}

func TestSummarizeIssueDistributionFilingsOnly(t *testing.T) {
	contract := record.Record{
		Kind:       record.KindContract,
		PeriodYear: 2024,
		Filer:      record.Party{Name: "Vendor"},
		Activities: []record.Activity{{TopicCode: "construction"}},
	}
	records := []record.Record{
		filing(2024, "Firm A", "Client X", nil, "HCR", "TAX"),
		filing(2024, "Firm B", "Client Y", nil, "HCR"),
		contract,
	}
	ins := NewEngine(10).Summarize(records)
	if len(ins.IssueDistribution) != 2 {
		t.Fatalf("IssueDistribution = %+v, want HCR and TAX only", ins.IssueDistribution)
	}
	if ins.IssueDistribution[0].Code != "HCR" || ins.IssueDistribution[0].Count != 2 {
		t.Errorf("top issue = %+v, want HCR x2", ins.IssueDistribution[0])
	}
	for _, tc := range ins.IssueDistribution {
		if tc.Code == "construction" {
			t.Error("contract activity topics must not enter the issue distribution")
		}
	}
}

func TestSummarizeEntityCounts(t *testing.T) {
	r := filing(2024, "Firm A", "Client X", nil)
	r.Activities = []record.Activity{{
		TopicCode: "HCR",
		Entities: []record.GovernmentEntity{
			{Name: "Dept of Health", Type: "agency"},
			{Name: "Senate", Type: "chamber"},
		},
	}}
	r2 := filing(2024, "Firm B", "Client Y", nil)
	r2.Activities = []record.Activity{{
		TopicCode: "HCR",
		Entities:  []record.GovernmentEntity{{Name: "Dept of Health", Type: "agency"}},
	}}
	ins := NewEngine(10).Summarize([]record.Record{r, r2})
	if len(ins.EntityCounts) != 2 {
		t.Fatalf("EntityCounts = %+v, want 2", ins.EntityCounts)
	}
	if ins.EntityCounts[0].Name != "Dept of Health" || ins.EntityCounts[0].Count != 2 || ins.EntityCounts[0].Type != "agency" {
		t.Errorf("top entity = %+v, want Dept of Health agency x2", ins.EntityCounts[0])
	}
}

func TestNarrativeDeterministic(t *testing.T) {
	records := []record.Record{
		filing(2022, "Firm A", "Acme Corp", amount(100000), "HCR"),
		filing(2024, "Firm A", "Acme Corp", amount(300000), "HCR"),
		filing(2024, "Firm B", "Acme Corp", amount(50000), "TAX"),
	}
	engine := NewEngine(10)
	a := engine.Summarize(records).Narrative
	b := engine.Summarize(records).Narrative
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("narrative not deterministic:\n%v\n%v", a, b)
	}
	if len(a) == 0 {
		t.Fatal("expected narrative sentences")
	}
	// 1 record in 2022 to 2 in 2024 is a 100% increase.
	if !strings.Contains(a[0], "increased 100%") {
		t.Errorf("trend sentence = %q, want 100%% increase", a[0])
	}
	joined := strings.Join(a, " ")
	if !strings.Contains(joined, "Acme Corp") {
		t.Errorf("narrative should name the top counterparty, got %v", a)
	}
	if !strings.Contains(joined, "peaked in 2024 at $350000.00") {
		t.Errorf("narrative should name the spending peak, got %v", a)
	}
}

func TestNarrativeUnchangedTrend(t *testing.T) {
	records := []record.Record{
		filing(2022, "Firm A", "Acme Corp", nil),
		filing(2024, "Firm B", "Beta LLC", nil),
	}
	narrative := NewEngine(10).Summarize(records).Narrative
	if len(narrative) == 0 || !strings.Contains(narrative[0], "unchanged") {
		t.Errorf("narrative = %v, want unchanged trend sentence", narrative)
	}
}
