package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/bryanwahyu/incident-responder/internal/domain/analysis"
	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
	"github.com/bryanwahyu/incident-responder/internal/domain/knowledge"
)

// RuleAnalyst is the deterministic analyst: an ordered pattern table with
// first-match-wins semantics and a defined Unknown/Inconclusive fallback.
// When a knowledge retriever is wired, matched findings are enriched with
// the top-K passages as extra evidence; retrieval failure degrades to the
// un-enriched finding instead of failing the phase.
type RuleAnalyst struct {
	Rules []analysis.Rule
	KB    knowledge.Retriever
	TopK  int
}

func (a *RuleAnalyst) Analyze(ctx context.Context, inc *domain.Incident, col Collected) (analysis.Finding, error) {
	rules := a.Rules
	if rules == nil {
		rules = analysis.DefaultRules
	}
	f := analysis.Evaluate(rules, col.Text)

	if a.KB != nil && !f.Inconclusive() {
		topK := a.TopK
		if topK <= 0 {
			topK = 3
		}
		docs, err := a.KB.Retrieve(ctx, col.Text, topK)
		if err != nil {
			log.Printf("analyst: kb retrieval failed, continuing without: %v", err)
			return f, nil
		}
		for _, d := range docs {
			f.Evidence = append(f.Evidence, fmt.Sprintf("KB: %s", d.Text))
		}
	}
	return f, nil
}
