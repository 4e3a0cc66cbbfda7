package incidents

import "context"

// Ledger port (interface untuk persistence). The ledger is the single
// source of truth for incidents, steps and reports; all writes are durable
// before the call returns. It never talks to the log/KB/LLM collaborators.
type Ledger interface {
	// CreateIncident inserts a new incident. When inc.ID is empty the ledger
	// generates one; ErrDuplicate when the id is already taken.
	CreateIncident(ctx context.Context, inc *Incident) (ID, error)
	GetIncident(ctx context.Context, id ID) (*Incident, error)
	// ListIncidents returns at most limit incidents, most recent first.
	ListIncidents(ctx context.Context, limit int) ([]*Incident, error)
	// ListOpen returns every OPEN incident in creation order.
	ListOpen(ctx context.Context) ([]*Incident, error)

	// SetStatus applies a validated status transition (compare-and-set on the
	// current status). ErrInvalidTransition when the move is not legal.
	SetStatus(ctx context.Context, id ID, status Status) error
	// Claim atomically moves OPEN -> IN_PROGRESS. Exactly one of N concurrent
	// claimers observes true; the rest observe false.
	Claim(ctx context.Context, id ID) (bool, error)
	// Reopen resets a FAILED incident to OPEN so operators can reprocess it.
	Reopen(ctx context.Context, id ID) error

	AppendStep(ctx context.Context, s *Step) (int64, error)
	UpdateStepStatus(ctx context.Context, stepID int64, status StepStatus) error
	// ListSteps returns all steps for an incident in insertion order.
	ListSteps(ctx context.Context, id ID) ([]*Step, error)

	// SaveReport appends a report row; history is kept, readers take the
	// latest.
	SaveReport(ctx context.Context, id ID, structured any, narrative string) (int64, error)
	GetLatestReport(ctx context.Context, id ID) (*Report, error)
}
