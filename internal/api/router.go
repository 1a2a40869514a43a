package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/health"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/metrics"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/middleware"
)

// RouterOptions configures the middleware chain around the API routes.
type RouterOptions struct {
	RequestTimeout     time.Duration
	AllowedOrigins     []string
	RateLimitPerMinute int
}

// NewRouter wires the full HTTP surface.
//
// Route table:
//
//	GET /api/search                  → paginated search envelope
//	GET /api/filings/{source}/{ref}  → single record detail
//	GET /api/insights                → aggregate insights
//	GET /api/export                  → CSV of the current search page
//	GET /api/sources                 → configured sources and search types
//	GET /healthz                     → liveness
//	GET /readyz                      → readiness (runs upstream checks)
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}
	if opts.RateLimitPerMinute > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMinute))
	}
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/filings/{source}/{ref}", h.Detail)
		r.Get("/insights", h.Insights)
		r.Get("/export", h.Export)
		r.Get("/sources", h.Sources)
	})

	r.Get("/healthz", checker.LiveHandler())
	r.Get("/readyz", checker.ReadyHandler())

	return r
}
