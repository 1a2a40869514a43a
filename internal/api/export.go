package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Export handles GET /api/export: the search re-runs through the same
// cached path and the envelope's records are flattened into CSV rows. The
// encoding itself is plain glue; everything interesting happened before the
// records got here.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	envelope, err := h.core.RunSearch(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("export_%s_%s.csv", q.Source, time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if envelope.Degraded {
		w.Header().Set("X-Degraded-Result", "true")
	}

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"record_id", "record_kind", "source", "period_year", "period_label",
		"filer", "counterparty", "amount", "amount_kind", "filed_at",
		"issue_areas", "government_entities", "document_url",
	})
	for _, rec := range envelope.Records {
		amount := ""
		if rec.Amount != nil {
			amount = rec.Amount.String()
		}
		filedAt := ""
		if rec.FiledAt != nil {
			filedAt = rec.FiledAt.Format("2006-01-02")
		}
		issues := make([]string, 0, len(rec.Activities))
		entities := make([]string, 0, len(rec.Activities))
		for _, act := range rec.Activities {
			if act.TopicLabel != "" {
				issues = append(issues, act.TopicLabel)
			} else if act.TopicCode != "" {
				issues = append(issues, act.TopicCode)
			}
			for _, e := range act.Entities {
				entities = append(entities, e.Name)
			}
		}
		_ = cw.Write([]string{
			rec.ID,
			string(rec.Kind),
			string(rec.Source),
			fmt.Sprintf("%d", rec.PeriodYear),
			rec.PeriodLabel,
			rec.Filer.Name,
			rec.Counterparty.Name,
			amount,
			string(rec.AmountKind),
			filedAt,
			strings.Join(issues, "; "),
			strings.Join(entities, "; "),
			rec.DocumentURL,
		})
	}
	cw.Flush()
}
