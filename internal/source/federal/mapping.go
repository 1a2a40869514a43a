package federal

import (
	"strings"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/source"
)

// mapFiling converts one LDA filing object into a canonical record. The
// mapping is total: any absent, null, or wrong-typed field becomes its zero
// value rather than an error.
func mapFiling(f source.Obj) record.Record {
	registrant := f.Obj("registrant")
	client := f.Obj("client")

	rec := record.Record{
		ID:     f.FirstStr("filing_uuid", "id"),
		Kind:   record.KindDisclosureFiling,
		Source: record.SourceFederal,
		Filer: record.Party{
			Name:    registrant.Str("name"),
			Role:    registrant.Str("description"),
			Address: registrantAddress(registrant),
			Contact: registrant.Str("contact_name"),
		},
		Counterparty: record.Party{
			Name: client.Str("name"),
			Role: client.Str("general_description"),
		},
		Activities:  mapActivities(f.List("lobbying_activities")),
		DocumentURL: f.Str("filing_document_url"),
		RawRef:      f.FirstStr("filing_uuid", "id"),
		PeriodLabel: f.FirstStr("filing_period_display", "filing_period"),
	}

	// Primary year field with the posting date as fallback.
	rec.PeriodYear = f.Int("filing_year")
	if rec.PeriodYear == 0 {
		rec.PeriodYear = source.YearOf(f.Any("dt_posted"))
	}

	if t := parseTime(f.Str("dt_posted")); t != nil {
		rec.FiledAt = t
	}

	// A filing reports either the registrant's income from the client or
	// the organisation's own lobbying expenses, never both meaningfully.
	if amount := record.ParseMoney(f.Any("income")); amount != nil {
		rec.Amount = amount
		rec.AmountKind = record.AmountIncome
	} else if amount := record.ParseMoney(f.Any("expenses")); amount != nil {
		rec.Amount = amount
		rec.AmountKind = record.AmountExpense
	}

	return rec
}

func registrantAddress(registrant source.Obj) string {
	parts := make([]string, 0, 4)
	for _, key := range []string{"address_1", "address_2", "city", "state"} {
		if v := registrant.Str(key); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func mapActivities(raw []any) []record.Activity {
	activities := make([]record.Activity, 0, len(raw))
	for _, item := range raw {
		act := source.AsObj(item)
		activities = append(activities, record.Activity{
			TopicCode:   act.Str("general_issue_code"),
			TopicLabel:  act.Str("general_issue_code_display"),
			Description: act.Str("description"),
			Entities:    mapEntities(act.List("government_entities")),
			Individuals: mapLobbyists(act.List("lobbyists")),
		})
	}
	return activities
}

func mapEntities(raw []any) []record.GovernmentEntity {
	if len(raw) == 0 {
		return nil
	}
	entities := make([]record.GovernmentEntity, 0, len(raw))
	for _, item := range raw {
		e := source.AsObj(item)
		if name := e.Str("name"); name != "" {
			entities = append(entities, record.GovernmentEntity{
				Name: name,
				Type: e.Str("type"),
			})
		}
	}
	return entities
}

func mapLobbyists(raw []any) []record.Individual {
	if len(raw) == 0 {
		return nil
	}
	individuals := make([]record.Individual, 0, len(raw))
	for _, item := range raw {
		entry := source.AsObj(item)
		person := entry.Obj("lobbyist")
		name := joinName(person.Str("first_name"), person.Str("middle_name"), person.Str("last_name"))
		if name == "" {
			continue
		}
		individuals = append(individuals, record.Individual{
			Name: name,
			Role: entry.Str("covered_position"),
		})
	}
	return individuals
}

func joinName(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
