package pipeline

import (
	"context"

	"github.com/bryanwahyu/incident-responder/internal/domain/analysis"
	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
)

// Collected is the collector's typed result: the routed log group and the
// raw log text fetched from the backend.
type Collected struct {
	Group string
	Text  string
}

// Collector port: pick a log group for the incident and fetch its raw log.
type Collector interface {
	Collect(ctx context.Context, inc *domain.Incident) (Collected, error)
}

// Analyst port: turn incident context plus collected logs into a structured
// finding. Implementations must return the Unknown/Inconclusive fallback
// rather than an error when nothing matches.
type Analyst interface {
	Analyze(ctx context.Context, inc *domain.Incident, col Collected) (analysis.Finding, error)
}

// Supervisor port: render the finding into a narrative artifact and persist
// both forms via the ledger, returning the report id.
type Supervisor interface {
	Compile(ctx context.Context, inc *domain.Incident, f analysis.Finding) (int64, error)
}

// Investigator runs the whole investigation for one already-claimed
// incident. A nil return means a report is persisted and the incident can
// be marked DONE.
type Investigator interface {
	Investigate(ctx context.Context, inc *domain.Incident) error
}
