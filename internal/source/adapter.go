// Package source defines the adapter contract every upstream data source
// implements, plus the shared HTTP client adapters use to call their APIs.
package source

import (
	"context"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/query"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
)

// Adapter translates canonical queries into upstream HTTP calls and maps the
// raw responses into canonical records. Implementations are stateless beyond
// their configuration and safe for concurrent use.
type Adapter interface {
	// ID returns the source this adapter serves.
	ID() record.SourceID

	// Supports reports whether the adapter recognises a search type. The
	// orchestrator checks this before any upstream call is made.
	Supports(t query.SearchType) bool

	// Search runs one paginated search. A page past the end of the result
	// set returns an empty record slice with the true total, not an error.
	Search(ctx context.Context, q query.Query) (*record.Envelope, error)

	// FetchDetail re-fetches one upstream record by its opaque raw
	// reference for a detail view.
	FetchDetail(ctx context.Context, rawRef string) (*record.Record, error)
}

// Pinger is implemented by adapters that can cheaply probe their upstream.
// The readiness endpoint registers these probes per source.
type Pinger interface {
	Ping(ctx context.Context) error
}
