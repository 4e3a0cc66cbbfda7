package incidents

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// StepRecorder writes the pre-announce/finalize step pairs every phase must
// emit: an in_progress step before a fallible action, updated to complete or
// error after it. A step stuck in_progress after a crash is itself signal
// for operators and must stay visible, so nothing here ever deletes rows.
type StepRecorder struct {
	Ledger Ledger
}

// Begin writes an in_progress step with a UI-facing title and a short
// synopsis of intent, returning the step id for the later finalize call.
func (r *StepRecorder) Begin(ctx context.Context, id ID, phase, title, synopsis string) (int64, error) {
	return r.Ledger.AppendStep(ctx, &Step{
		IncidentID: id,
		Phase:      phase,
		Title:      title,
		Message:    synopsis,
		Status:     StepInProgress,
	})
}

// Complete finalizes a step as successful.
func (r *StepRecorder) Complete(ctx context.Context, stepID int64) error {
	return r.Ledger.UpdateStepStatus(ctx, stepID, StepComplete)
}

// Fail marks the announced step as error and appends a separate detail step
// so the UI shows why it failed. data carries non-secret context only
// (backend mode, paths, index names; never credentials).
func (r *StepRecorder) Fail(ctx context.Context, id ID, stepID int64, phase, title string, cause error, data map[string]string) error {
	if err := r.Ledger.UpdateStepStatus(ctx, stepID, StepError); err != nil {
		return err
	}
	msg := fmt.Sprintf("%v", cause)
	if len(data) > 0 {
		msg = msg + "\n\nContext:\n" + formatContext(data)
	}
	_, err := r.Ledger.AppendStep(ctx, &Step{
		IncidentID: id,
		Phase:      phase,
		Title:      title + " failed",
		Message:    msg,
		Status:     StepError,
		Data:       data,
	})
	return err
}

func formatContext(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s=%s", k, data[k]))
	}
	return strings.Join(lines, "\n")
}
