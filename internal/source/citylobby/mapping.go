package citylobby

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/source"
)

// mapFiling converts one city lobbying row into a canonical record. Rows
// from the different endpoints vary in shape, so every field is probed
// through a fallback chain and defaulted when absent.
func mapFiling(f source.Obj) record.Record {
	filerName := f.FirstStr("lobbyist_name", "lobbyistName", "registrant_name")
	if filerName == "" {
		filerName = f.Obj("registrant").Str("name")
	}
	clientName := f.FirstStr("client_name", "clientName")
	if clientName == "" {
		clientName = f.Obj("client").Str("name")
	}

	rec := record.Record{
		ID:     f.FirstStr("id", "filing_id", "filingId"),
		Kind:   record.KindDisclosureFiling,
		Source: record.SourceCityLobbying,
		Filer: record.Party{
			Name:    filerName,
			Role:    "Registered Lobbyist",
			Address: f.FirstStr("address", "lobbyist_address"),
			Contact: f.FirstStr("contact_name", "contactName"),
		},
		Counterparty: record.Party{
			Name: clientName,
			Role: f.Obj("client").Str("description"),
		},
		PeriodLabel: periodLabel(f),
		DocumentURL: f.FirstStr("document_url", "documentUrl"),
	}

	rec.PeriodYear = f.Int("filingYear")
	if rec.PeriodYear == 0 {
		rec.PeriodYear = f.Int("filing_year")
	}
	if rec.PeriodYear == 0 {
		rec.PeriodYear = f.Int("year")
	}
	if rec.PeriodYear == 0 {
		rec.PeriodYear = source.YearOf(f.Obj("reportingPeriod").Any("periodEnd"))
	}

	if t := parseTime(f.FirstStr("filingDate", "filing_date", "dt_posted")); t != nil {
		rec.FiledAt = t
		if rec.PeriodYear == 0 {
			rec.PeriodYear = t.Year()
		}
	}

	// City filings report the registrant's compensation from the client.
	amount := record.ParseMoney(f.Obj("compensation").Any("amount"))
	if amount == nil {
		amount = record.ParseMoney(f.Any("compensation"))
	}
	if amount == nil {
		amount = record.ParseMoney(f.Any("amount"))
	}
	if amount != nil {
		rec.Amount = amount
		rec.AmountKind = record.AmountIncome
	}

	rec.Activities = mapActivities(f)

	// Some endpoints omit a row id entirely; synthesise a stable one from
	// the participants so the record stays addressable within the source.
	if rec.ID == "" {
		rec.ID = syntheticID(rec.PeriodYear, filerName, clientName)
	}
	rec.RawRef = rec.ID
	return rec
}

func periodLabel(f source.Obj) string {
	if name := f.Obj("reportingPeriod").Str("name"); name != "" {
		return name
	}
	return f.FirstStr("filing_period", "filingPeriod", "period")
}

func mapActivities(f source.Obj) []record.Activity {
	raw := f.List("lobbying_activities")
	if raw == nil {
		raw = f.List("activities")
	}
	if len(raw) > 0 {
		activities := make([]record.Activity, 0, len(raw))
		for _, item := range raw {
			act := source.AsObj(item)
			activities = append(activities, record.Activity{
				TopicCode:   act.FirstStr("general_issue_code", "subject_code"),
				TopicLabel:  act.FirstStr("general_issue_code_display", "subject"),
				Description: act.Str("description"),
				Entities:    mapEntities(act.List("government_entities")),
				Individuals: mapIndividuals(act.List("lobbyists")),
			})
		}
		return activities
	}

	// Flat rows carry at most a subjects line and a target agency; fold
	// them into a single synthetic activity.
	subjects := f.FirstStr("subjects", "subject")
	agency := f.FirstStr("agency_name", "agencyName", "target_agency")
	if subjects == "" && agency == "" {
		return []record.Activity{}
	}
	act := record.Activity{Description: subjects}
	if agency != "" {
		act.Entities = []record.GovernmentEntity{{Name: agency, Type: "City Agency"}}
	}
	return []record.Activity{act}
}

func mapEntities(raw []any) []record.GovernmentEntity {
	if len(raw) == 0 {
		return nil
	}
	entities := make([]record.GovernmentEntity, 0, len(raw))
	for _, item := range raw {
		e := source.AsObj(item)
		if name := e.Str("name"); name != "" {
			entities = append(entities, record.GovernmentEntity{Name: name, Type: e.Str("type")})
		}
	}
	return entities
}

func mapIndividuals(raw []any) []record.Individual {
	if len(raw) == 0 {
		return nil
	}
	individuals := make([]record.Individual, 0, len(raw))
	for _, item := range raw {
		entry := source.AsObj(item)
		name := entry.Str("name")
		if name == "" {
			name = entry.Obj("lobbyist").Str("name")
		}
		if name == "" {
			continue
		}
		individuals = append(individuals, record.Individual{Name: name, Role: entry.Str("title")})
	}
	return individuals
}

func syntheticID(year int, filer, client string) string {
	h := fnv.New32a()
	h.Write([]byte(filer))
	h.Write([]byte{0})
	h.Write([]byte(client))
	return fmt.Sprintf("NYC-%d-%05d", year, h.Sum32()%100000)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
