package citycontracts

import (
	"fmt"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/source"
)

// contractTypes maps the dataset's contract type codes to display labels.
var contractTypes = map[string]string{
	"EXPENSE": "Expense Contract",
	"REVENUE": "Revenue Contract",
	"AWARD":   "Award Agreement",
	"GRANT":   "Grant Agreement",
	"CAPITAL": "Capital Project",
}

// mapContract converts one tabular contract row into a canonical record.
// The vendor is the filer, the contracting agency the counterparty, and the
// row's purpose becomes a single synthetic activity carrying the agency as a
// government entity.
func mapContract(row source.Obj) record.Record {
	typeCode := row.Str("contract_type")
	typeLabel := contractTypes[typeCode]
	if typeLabel == "" {
		typeLabel = typeCode
	}
	agency := row.Str("agency_name")

	rec := record.Record{
		ID:     row.Str("contract_id"),
		Kind:   record.KindContract,
		Source: record.SourceCityContracts,
		Filer: record.Party{
			Name:    row.Str("vendor_name"),
			Role:    "Vendor",
			Address: row.Str("address"),
			Contact: row.Str("contact_name"),
		},
		Counterparty: record.Party{
			Name: agency,
			Role: "City Government Agency",
		},
		PeriodLabel: periodLabel(row),
		DocumentURL: row.Str("document_url"),
	}
	rec.RawRef = rec.ID

	// Contracts report their registered ceiling, not actual spend.
	if amount := record.ParseMoney(row.Any("maximum_contract_amount")); amount != nil {
		rec.Amount = amount
		rec.AmountKind = record.AmountContractCeiling
	}

	rec.PeriodYear = row.Int("fiscal_year")
	if rec.PeriodYear == 0 {
		rec.PeriodYear = source.YearOf(row.Any("start_date"))
	}
	if rec.PeriodYear == 0 {
		rec.PeriodYear = source.YearOf(row.Any("registered_date"))
	}

	if t := parseTime(row.FirstStr("registered_date", "start_date")); t != nil {
		rec.FiledAt = t
	}

	purpose := row.FirstStr("purpose", "contract_description")
	if purpose == "" {
		purpose = "City contract"
	}
	activity := record.Activity{
		TopicCode:   typeCode,
		TopicLabel:  typeLabel,
		Description: purpose,
	}
	if agency != "" {
		activity.Entities = []record.GovernmentEntity{{Name: agency, Type: "City Agency"}}
	}
	rec.Activities = []record.Activity{activity}

	return rec
}

func periodLabel(row source.Obj) string {
	start := row.Str("start_date")
	end := row.Str("end_date")
	if start != "" && end != "" {
		return fmt.Sprintf("%s - %s", datePart(start), datePart(end))
	}
	if fy := row.Int("fiscal_year"); fy != 0 {
		return fmt.Sprintf("FY%d", fy)
	}
	return ""
}

// datePart strips a trailing time component from an ISO timestamp.
func datePart(s string) string {
	if len(s) > 10 && s[10] == 'T' {
		return s[:10]
	}
	return s
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
