package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryanwahyu/incident-responder/internal/domain/analysis"
	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
)

// ReportCompiler renders a finding into the markdown narrative and persists
// both the structured and rendered forms via the ledger. Evidence bullets
// come straight from the finding; nothing is added here.
type ReportCompiler struct {
	Ledger domain.Ledger
}

func (s *ReportCompiler) Compile(ctx context.Context, inc *domain.Incident, f analysis.Finding) (int64, error) {
	return s.Ledger.SaveReport(ctx, inc.ID, f, RenderMarkdown(inc, f))
}

// RenderMarkdown builds the human-readable report with the sections Issue,
// Root Cause, Suggested Mitigations and Evidence.
func RenderMarkdown(inc *domain.Incident, f analysis.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Incident %s (%s)\n\n", inc.ID, orUnknown(inc.Service))
	fmt.Fprintf(&b, "**Issue**: %s\n\n", f.Issue)
	fmt.Fprintf(&b, "**Root Cause**: %s\n\n", f.RootCause)

	b.WriteString("**Suggested Mitigations**\n")
	writeBullets(&b, f.Mitigations)
	b.WriteString("\n**Evidence**\n")
	writeBullets(&b, f.Evidence)
	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- TBD\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
