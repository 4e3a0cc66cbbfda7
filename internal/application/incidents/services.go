package incidents

import (
	"context"

	"github.com/bryanwahyu/incident-responder/internal/application"
	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
)

// Service implements use-cases untuk Incident: ingest from alert sources,
// operator reopen, and the read-only queries the dashboard renders.
type Service struct {
	Ledger domain.Ledger
	Clock  application.Clock
}

// Command untuk ingest incident
type IngestCommand struct {
	ID          string
	Service     string
	Environment string
	Severity    string
	Payload     map[string]any
}

// Ingest creates a new OPEN incident from an alert. The id may be supplied
// by the alert source (e.g. "INC001") or left empty for a generated one.
func (s *Service) Ingest(ctx context.Context, cmd IngestCommand) (*domain.Incident, error) {
	inc := &domain.Incident{
		ID:          domain.ID(cmd.ID),
		Status:      domain.StatusOpen,
		Service:     cmd.Service,
		Environment: cmd.Environment,
		Severity:    cmd.Severity,
		Payload:     cmd.Payload,
		CreatedAt:   s.Clock.Now().UTC(),
	}
	id, err := s.Ledger.CreateIncident(ctx, inc)
	if err != nil {
		return nil, err
	}
	return s.Ledger.GetIncident(ctx, id)
}

// Reopen resets a FAILED incident to OPEN so the poller picks it up again.
// There is no automatic retry; this is the operator's lever.
func (s *Service) Reopen(ctx context.Context, id domain.ID) (*domain.Incident, error) {
	if err := s.Ledger.Reopen(ctx, id); err != nil {
		return nil, err
	}
	return s.Ledger.GetIncident(ctx, id)
}

// Latest ambil N incident terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Incident, error) {
	return s.Ledger.ListIncidents(ctx, limit)
}

// Get ambil 1 incident by id
func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Incident, error) {
	return s.Ledger.GetIncident(ctx, id)
}

// Steps returns the full progress trace for an incident in insertion order.
func (s *Service) Steps(ctx context.Context, id domain.ID) ([]*domain.Step, error) {
	if _, err := s.Ledger.GetIncident(ctx, id); err != nil {
		return nil, err
	}
	return s.Ledger.ListSteps(ctx, id)
}

// LatestReport returns the most recent report for an incident.
func (s *Service) LatestReport(ctx context.Context, id domain.ID) (*domain.Report, error) {
	if _, err := s.Ledger.GetIncident(ctx, id); err != nil {
		return nil, err
	}
	return s.Ledger.GetLatestReport(ctx, id)
}
