// Package api exposes the search core over HTTP: search, record detail,
// insights, CSV export, and source discovery. Rendering is left entirely to
// clients; every endpoint returns JSON (or CSV for export) built from the
// canonical types.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/insights"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/orchestrator"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/query"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	apperrors "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/errors"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/logger"
)

// Core is the search orchestration layer as the API sees it.
type Core interface {
	RunSearch(ctx context.Context, q query.Query) (*record.Envelope, error)
	FetchDetail(ctx context.Context, source record.SourceID, rawRef string) (*record.Record, error)
	RunInsights(ctx context.Context, q query.Query) (insights.Insights, bool, error)
	Sources() []orchestrator.SourceInfo
}

// Handler serves the HTTP API.
type Handler struct {
	core   Core
	logger *slog.Logger
}

// New builds the Handler.
func New(core Core) *Handler {
	return &Handler{
		core:   core,
		logger: logger.WithComponent("api-handler"),
	}
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	envelope, err := h.core.RunSearch(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Success:  true,
		Query:    q.Text,
		Source:   string(q.Source),
		Envelope: envelope,
	})
}

// Detail handles GET /api/filings/{source}/{ref}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	sourceID := record.SourceID(chi.URLParam(r, "source"))
	ref := chi.URLParam(r, "ref")
	rec, err := h.core.FetchDetail(r.Context(), sourceID, ref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{Success: true, Record: rec})
}

// Insights handles GET /api/insights with the same parameters as search.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	ins, degraded, err := h.core.RunInsights(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insightsResponse{
		Success:  true,
		Query:    q.Text,
		Source:   string(q.Source),
		Degraded: degraded,
		Insights: ins,
	})
}

// Sources handles GET /api/sources.
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"sources": h.core.Sources(),
	})
}

type searchResponse struct {
	Success  bool             `json:"success"`
	Query    string           `json:"query"`
	Source   string           `json:"data_source"`
	Envelope *record.Envelope `json:"result"`
}

type detailResponse struct {
	Success bool           `json:"success"`
	Record  *record.Record `json:"record"`
}

type insightsResponse struct {
	Success  bool              `json:"success"`
	Query    string            `json:"query"`
	Source   string            `json:"data_source"`
	Degraded bool              `json:"degraded"`
	Insights insights.Insights `json:"insights"`
}

// errorBody is the JSON error shape. A failed search is always
// distinguishable from an empty result set: empty results are a 200 with
// records=[], failures are a non-2xx with this body.
type errorBody struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= 500 {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg, Success: false})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseQuery extracts the canonical search parameters from the request.
func parseQuery(r *http.Request) query.Query {
	params := r.URL.Query()
	q := query.Query{
		Source: record.SourceID(params.Get("data_source")),
		Type:   query.SearchType(params.Get("search_type")),
		Text:   params.Get("query"),
	}
	if q.Type == "" {
		q.Type = query.SearchRegistrant
	}
	q.Page = atoiDefault(params.Get("page"), 1)
	q.PageSize = atoiDefault(params.Get("page_size"), 0)
	q.Filters = query.Filters{
		FilingType:       nonAll(params.Get("filing_type")),
		FilingYear:       atoiDefault(nonAll(params.Get("filing_year")), 0),
		YearFrom:         atoiDefault(params.Get("year_from"), 0),
		YearTo:           atoiDefault(params.Get("year_to"), 0),
		IssueArea:        params.Get("issue_area"),
		GovernmentEntity: params.Get("government_entity"),
	}
	if min := params.Get("amount_min"); min != "" {
		if d, err := decimal.NewFromString(min); err == nil {
			q.Filters.AmountMin = &d
		}
	}
	return q
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// nonAll treats the UI's "all" filter option as no filter.
func nonAll(s string) string {
	if s == "all" {
		return ""
	}
	return s
}
