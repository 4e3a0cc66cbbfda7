package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bryanwahyu/incident-responder/internal/domain/analysis"
	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
	"github.com/bryanwahyu/incident-responder/internal/domain/knowledge"
	"github.com/bryanwahyu/incident-responder/internal/domain/logs"
	sqlitep "github.com/bryanwahyu/incident-responder/internal/infra/db/sqlite"
)

func newLedger(t *testing.T) domain.Ledger {
	t.Helper()
	db, err := sqlitep.Connect(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlitep.NewLedger(db)
}

func seedIncident(t *testing.T, l domain.Ledger, id string) *domain.Incident {
	t.Helper()
	_, err := l.CreateIncident(context.Background(), &domain.Incident{
		ID:      domain.ID(id),
		Service: "checkout",
		Payload: map[string]any{"alert_type": "db_connection"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inc, err := l.GetIncident(context.Background(), domain.ID(id))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	return inc
}

// fakeSource serves a fixed log text, or fails.
type fakeSource struct {
	text string
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context, incidentID, group string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// fakeRetriever returns canned passages, or fails.
type fakeRetriever struct {
	docs []knowledge.Document
	err  error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]knowledge.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func newInvestigator(l domain.Ledger, src logs.Source, kb knowledge.Retriever) *PhasedInvestigator {
	return &PhasedInvestigator{
		Recorder:   &domain.StepRecorder{Ledger: l},
		Collector:  &LogCollector{Source: src},
		Analyst:    &RuleAnalyst{KB: kb},
		Supervisor: &ReportCompiler{Ledger: l},
	}
}

func TestInvestigateHappyPath(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	inc := seedIncident(t, l, "INC001")

	inv := newInvestigator(l, &fakeSource{text: "dial tcp: connection refused"}, nil)
	if err := inv.Investigate(ctx, inc); err != nil {
		t.Fatalf("investigate: %v", err)
	}

	steps, err := l.ListSteps(ctx, inc.ID)
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("len(steps) = %d, want 3", len(steps))
	}
	wantPhases := []string{"collector", "analyst", "supervisor"}
	for i, s := range steps {
		if s.Phase != wantPhases[i] {
			t.Errorf("step %d phase = %s, want %s", i, s.Phase, wantPhases[i])
		}
		if s.Status != domain.StepComplete {
			t.Errorf("step %d status = %s, want complete", i, s.Status)
		}
	}

	rep, err := l.GetLatestReport(ctx, inc.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(rep.Narrative, "Database connection errors") {
		t.Errorf("narrative missing issue:\n%s", rep.Narrative)
	}
}

func TestInvestigateLogNotFound(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	inc := seedIncident(t, l, "INC001")

	nf := &logs.NotFoundError{IncidentID: "INC001", Attempted: []string{"logs/INC001.log"}}
	inv := newInvestigator(l, &fakeSource{err: nf}, nil)

	err := inv.Investigate(ctx, inc)
	if !logs.IsNotFound(err) {
		t.Fatalf("err = %v, want log not-found", err)
	}

	steps, _ := l.ListSteps(ctx, inc.ID)
	// Announced collector step flipped to error plus the detail step.
	if len(steps) != 2 {
		t.Fatalf("len(steps) = %d, want 2", len(steps))
	}
	if steps[0].Status != domain.StepError {
		t.Errorf("announced step status = %s, want error", steps[0].Status)
	}
	if !strings.Contains(steps[1].Message, "logs/INC001.log") {
		t.Errorf("detail step missing attempted paths: %q", steps[1].Message)
	}
	if steps[1].Data["attempted"] != "logs/INC001.log" {
		t.Errorf("detail data = %v", steps[1].Data)
	}

	if _, err := l.GetLatestReport(ctx, inc.ID); !errors.Is(err, domain.ErrReportNotFound) {
		t.Errorf("report err = %v, want ErrReportNotFound", err)
	}
}

func TestRuleAnalystKBEnrichment(t *testing.T) {
	a := &RuleAnalyst{KB: &fakeRetriever{docs: []knowledge.Document{
		{Text: "Postgres readiness probes flap during failover", Score: 0.9},
	}}}
	f, err := a.Analyze(context.Background(), &domain.Incident{}, Collected{Text: "connection refused"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	found := false
	for _, e := range f.Evidence {
		if strings.HasPrefix(e, "KB: Postgres readiness") {
			found = true
		}
	}
	if !found {
		t.Errorf("evidence missing KB passage: %v", f.Evidence)
	}
}

func TestRuleAnalystKBFailureDegrades(t *testing.T) {
	a := &RuleAnalyst{KB: &fakeRetriever{err: knowledge.ErrUnavailable}}
	f, err := a.Analyze(context.Background(), &domain.Incident{}, Collected{Text: "connection refused"})
	if err != nil {
		t.Fatalf("analyze must not fail on retrieval error: %v", err)
	}
	if f.Issue != "Database connection errors" {
		t.Errorf("issue = %q", f.Issue)
	}
	for _, e := range f.Evidence {
		if strings.HasPrefix(e, "KB:") {
			t.Errorf("unexpected KB evidence after failure: %v", f.Evidence)
		}
	}
}

func TestRuleAnalystSkipsKBWhenInconclusive(t *testing.T) {
	kb := &fakeRetriever{docs: []knowledge.Document{{Text: "irrelevant"}}}
	a := &RuleAnalyst{KB: kb}
	f, err := a.Analyze(context.Background(), &domain.Incident{}, Collected{Text: "nothing matches"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !f.Inconclusive() {
		t.Fatalf("expected fallback finding, got %q", f.Issue)
	}
	for _, e := range f.Evidence {
		if strings.HasPrefix(e, "KB:") {
			t.Errorf("fallback finding was enriched: %v", f.Evidence)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	inc := &domain.Incident{ID: "INC001", Service: "checkout"}
	f := analysis.Finding{
		Issue:       "Service OOM",
		RootCause:   "Memory pressure or leak",
		Mitigations: []string{"Increase container memory limit"},
		Evidence:    []string{"Matched pattern: OOMKilled"},
	}
	md := RenderMarkdown(inc, f)

	for _, want := range []string{
		"# Incident INC001",
		"**Issue**: Service OOM",
		"**Root Cause**: Memory pressure or leak",
		"**Suggested Mitigations**",
		"- Increase container memory limit",
		"**Evidence**",
		"- Matched pattern: OOMKilled",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRenderMarkdownEmptyLists(t *testing.T) {
	md := RenderMarkdown(&domain.Incident{ID: "X"}, analysis.Finding{Issue: "i", RootCause: "r"})
	if !strings.Contains(md, "- TBD") {
		t.Errorf("empty lists should render as TBD:\n%s", md)
	}
}
