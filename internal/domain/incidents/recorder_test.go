package incidents

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// memLedger implements just enough of Ledger for recorder tests.
type memLedger struct {
	Ledger
	steps  []*Step
	nextID int64
}

func (m *memLedger) AppendStep(ctx context.Context, s *Step) (int64, error) {
	m.nextID++
	cp := *s
	cp.ID = m.nextID
	m.steps = append(m.steps, &cp)
	return cp.ID, nil
}

func (m *memLedger) UpdateStepStatus(ctx context.Context, stepID int64, status StepStatus) error {
	for _, s := range m.steps {
		if s.ID == stepID {
			s.Status = status
			return nil
		}
	}
	return ErrStepNotFound
}

func TestRecorderBeginComplete(t *testing.T) {
	m := &memLedger{}
	r := &StepRecorder{Ledger: m}
	ctx := context.Background()

	stepID, err := r.Begin(ctx, "INC001", "collector", "Fetching logs...", "reading the backend")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if len(m.steps) != 1 || m.steps[0].Status != StepInProgress {
		t.Fatalf("steps = %+v", m.steps)
	}

	if err := r.Complete(ctx, stepID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if m.steps[0].Status != StepComplete {
		t.Errorf("status = %s, want complete", m.steps[0].Status)
	}
}

func TestRecorderFailAppendsDetail(t *testing.T) {
	m := &memLedger{}
	r := &StepRecorder{Ledger: m}
	ctx := context.Background()

	stepID, err := r.Begin(ctx, "INC001", "collector", "Fetching logs...", "reading the backend")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	cause := errors.New("bucket does not exist")
	data := map[string]string{"backend": "minio", "attempted": "s3://logs/INC001/INC001.log"}
	if err := r.Fail(ctx, "INC001", stepID, "collector", "Fetch logs", cause, data); err != nil {
		t.Fatalf("fail: %v", err)
	}

	if len(m.steps) != 2 {
		t.Fatalf("len(steps) = %d, want announced + detail", len(m.steps))
	}
	if m.steps[0].Status != StepError {
		t.Errorf("announced status = %s, want error", m.steps[0].Status)
	}

	detail := m.steps[1]
	if detail.Title != "Fetch logs failed" || detail.Status != StepError {
		t.Errorf("detail = %+v", detail)
	}
	if !strings.Contains(detail.Message, "bucket does not exist") {
		t.Errorf("message missing cause: %q", detail.Message)
	}
	// Context lines are sorted by key.
	idx1 := strings.Index(detail.Message, "attempted=")
	idx2 := strings.Index(detail.Message, "backend=")
	if idx1 < 0 || idx2 < 0 || idx1 > idx2 {
		t.Errorf("context lines wrong or unordered:\n%s", detail.Message)
	}
}

func TestRecorderFailWithoutData(t *testing.T) {
	m := &memLedger{}
	r := &StepRecorder{Ledger: m}
	ctx := context.Background()

	stepID, _ := r.Begin(ctx, "INC001", "supervisor", "Storing report...", "persist")
	if err := r.Fail(ctx, "INC001", stepID, "supervisor", "Store report", errors.New("disk full"), nil); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if strings.Contains(m.steps[1].Message, "Context:") {
		t.Errorf("empty data must not render a context block: %q", m.steps[1].Message)
	}
}
