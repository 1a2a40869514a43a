package citycontracts

import (
	"fmt"
	"strings"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/query"
)

// soqlWhere builds the $where clause for a contracts search. The open-data
// endpoint speaks SoQL, so most filters push down natively; only the issue
// area is left for post-filtering. Single quotes are doubled per SoQL string
// literal rules so a query like "O'Brien Bros" cannot break out of the
// literal.
func soqlWhere(nameColumn, text string, f query.Filters) string {
	clauses := []string{
		fmt.Sprintf("UPPER(%s) LIKE '%%%s%%'", nameColumn, escapeSoQL(strings.ToUpper(text))),
	}
	if f.FilingYear != 0 {
		clauses = append(clauses, fmt.Sprintf("fiscal_year=%d", f.FilingYear))
	}
	if f.YearFrom != 0 {
		clauses = append(clauses, fmt.Sprintf("fiscal_year>=%d", f.YearFrom))
	}
	if f.YearTo != 0 {
		clauses = append(clauses, fmt.Sprintf("fiscal_year<=%d", f.YearTo))
	}
	if f.FilingType != "" {
		clauses = append(clauses, fmt.Sprintf("UPPER(contract_type)='%s'", escapeSoQL(strings.ToUpper(f.FilingType))))
	}
	if f.AmountMin != nil {
		clauses = append(clauses, fmt.Sprintf("maximum_contract_amount>=%s", f.AmountMin.String()))
	}
	if f.GovernmentEntity != "" {
		clauses = append(clauses, fmt.Sprintf("UPPER(agency_name) LIKE '%%%s%%'", escapeSoQL(strings.ToUpper(f.GovernmentEntity))))
	}
	return strings.Join(clauses, " AND ")
}

func escapeSoQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
