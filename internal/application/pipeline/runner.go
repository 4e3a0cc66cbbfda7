package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
)

// Runner polls the ledger for OPEN incidents and drives each one through
// the investigator. The runner is the only component that moves incident
// status: Claim before work, DONE or FAILED after.
type Runner struct {
	Ledger       domain.Ledger
	Investigator Investigator
	// Concurrency bounds how many incidents one tick works in parallel.
	// Zero or one means sequential.
	Concurrency int
}

// Tick processes every incident that is OPEN at the moment of the list.
// A failed investigation marks that incident FAILED and moves on; only a
// ledger listing failure aborts the tick itself.
func (r *Runner) Tick(ctx context.Context) error {
	open, err := r.Ledger.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open incidents: %w", err)
	}
	if len(open) == 0 {
		return nil
	}

	if r.Concurrency <= 1 {
		for _, inc := range open {
			r.Process(ctx, inc)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for _, inc := range open {
		inc := inc
		g.Go(func() error {
			r.Process(gctx, inc)
			return nil
		})
	}
	return g.Wait()
}

// Process claims and investigates a single incident. Losing the claim race
// is not an error; another worker owns it.
func (r *Runner) Process(ctx context.Context, inc *domain.Incident) {
	claimed, err := r.Ledger.Claim(ctx, inc.ID)
	if err != nil {
		log.Printf("pipeline: claim %s: %v", inc.ID, err)
		return
	}
	if !claimed {
		return
	}
	log.Printf("pipeline: investigating incident %s", inc.ID)

	if err := r.Investigator.Investigate(ctx, inc); err != nil {
		r.fail(ctx, inc.ID, err)
		return
	}
	if err := r.Ledger.SetStatus(ctx, inc.ID, domain.StatusDone); err != nil {
		log.Printf("pipeline: mark %s done: %v", inc.ID, err)
		return
	}
	log.Printf("pipeline: incident %s done", inc.ID)
}

// fail records the terminal error step under the phase that produced it
// and marks the incident FAILED. Step-write failures are logged, not fatal;
// the status move is the part that must land.
func (r *Runner) fail(ctx context.Context, id domain.ID, cause error) {
	log.Printf("pipeline: incident %s failed: %v", id, cause)
	phase := "supervisor"
	var pe *PhaseError
	if errors.As(cause, &pe) {
		phase = pe.Phase
	}
	if _, err := r.Ledger.AppendStep(ctx, &domain.Step{
		IncidentID: id,
		Phase:      phase,
		Title:      "Investigation failed",
		Message:    cause.Error(),
		Status:     domain.StepError,
	}); err != nil {
		log.Printf("pipeline: record failure step for %s: %v", id, err)
	}
	if err := r.Ledger.SetStatus(ctx, id, domain.StatusFailed); err != nil {
		log.Printf("pipeline: mark %s failed: %v", id, err)
	}
}
