package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bryanwahyu/incident-responder/internal/domain/analysis"
	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
	"github.com/bryanwahyu/incident-responder/internal/domain/knowledge"
	"github.com/bryanwahyu/incident-responder/internal/domain/logs"
)

// PhasedInvestigator drives the collector -> analyst -> supervisor sequence
// for one incident, writing the pre-announce/finalize step pair around
// every phase. Each phase call runs under PhaseTimeout so a hung backend
// shows up as a step-level error instead of a silent stall.
type PhasedInvestigator struct {
	Recorder     *domain.StepRecorder
	Collector    Collector
	Analyst      Analyst
	Supervisor   Supervisor
	PhaseTimeout time.Duration
}

func (v *PhasedInvestigator) Investigate(ctx context.Context, inc *domain.Incident) error {
	col, err := v.collect(ctx, inc)
	if err != nil {
		return &PhaseError{Phase: "collector", Err: err}
	}

	finding, err := v.analyze(ctx, inc, col)
	if err != nil {
		return &PhaseError{Phase: "analyst", Err: err}
	}

	if err := v.compile(ctx, inc, finding); err != nil {
		return &PhaseError{Phase: "supervisor", Err: err}
	}
	return nil
}

func (v *PhasedInvestigator) collect(ctx context.Context, inc *domain.Incident) (Collected, error) {
	stepID, err := v.Recorder.Begin(ctx, inc.ID, "collector",
		"Fetching the relevant log files...",
		"Retrieving the incident's raw log files from the configured log backend for analysis.")
	if err != nil {
		return Collected{}, err
	}

	pctx, cancel := v.phaseContext(ctx)
	col, err := v.Collector.Collect(pctx, inc)
	cancel()
	if err != nil {
		_ = v.Recorder.Fail(ctx, inc.ID, stepID, "collector", "Fetch logs", err, collectDiagnostics(err, col))
		return Collected{}, err
	}
	if err := v.Recorder.Complete(ctx, stepID); err != nil {
		return Collected{}, err
	}
	return col, nil
}

func (v *PhasedInvestigator) analyze(ctx context.Context, inc *domain.Incident, col Collected) (analysis.Finding, error) {
	stepID, err := v.Recorder.Begin(ctx, inc.ID, "analyst",
		"Analyzing logs...",
		"Matching the collected log text against known failure patterns and knowledge-base context.")
	if err != nil {
		return analysis.Finding{}, err
	}

	pctx, cancel := v.phaseContext(ctx)
	finding, err := v.Analyst.Analyze(pctx, inc, col)
	cancel()
	if err != nil {
		_ = v.Recorder.Fail(ctx, inc.ID, stepID, "analyst", "Analysis", err, analyzeDiagnostics(err))
		return analysis.Finding{}, err
	}
	if err := v.Recorder.Complete(ctx, stepID); err != nil {
		return analysis.Finding{}, err
	}
	return finding, nil
}

func (v *PhasedInvestigator) compile(ctx context.Context, inc *domain.Incident, finding analysis.Finding) error {
	stepID, err := v.Recorder.Begin(ctx, inc.ID, "supervisor",
		"Preparing the incident report...",
		"Compiling the root-cause analysis into the final incident report.")
	if err != nil {
		return err
	}

	pctx, cancel := v.phaseContext(ctx)
	_, err = v.Supervisor.Compile(pctx, inc, finding)
	cancel()
	if err != nil {
		_ = v.Recorder.Fail(ctx, inc.ID, stepID, "supervisor", "Store report", err, nil)
		return err
	}
	return v.Recorder.Complete(ctx, stepID)
}

func analyzeDiagnostics(err error) map[string]string {
	data := map[string]string{}
	if errors.Is(err, knowledge.ErrUnavailable) {
		data["backend"] = "knowledge base unavailable"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		data["timeout"] = "phase deadline exceeded"
	}
	return data
}

func (v *PhasedInvestigator) phaseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.PhaseTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.PhaseTimeout)
}

// collectDiagnostics builds the non-secret context map for a failed
// collector step.
func collectDiagnostics(err error, col Collected) map[string]string {
	data := map[string]string{"group": col.Group}
	var nf *logs.NotFoundError
	if errors.As(err, &nf) {
		data["attempted"] = strings.Join(nf.Attempted, ", ")
	}
	if errors.Is(err, logs.ErrUnavailable) {
		data["backend"] = "unavailable"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		data["timeout"] = "phase deadline exceeded"
	}
	return data
}
