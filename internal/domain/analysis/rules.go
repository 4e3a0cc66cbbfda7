package analysis

import (
	"fmt"
	"regexp"
)

// Rule maps a log pattern to a canned finding.
type Rule struct {
	Pattern     *regexp.Regexp
	Issue       string
	RootCause   string
	Mitigations []string
}

// maxCorpusBytes caps how much log text a single evaluation looks at.
const maxCorpusBytes = 20000

// DefaultRules is evaluated in order; the first matching rule wins, so the
// ordering here is behaviorally significant.
var DefaultRules = []Rule{
	{
		Pattern:     regexp.MustCompile(`(?i)connection refused|ECONNREFUSED`),
		Issue:       "Database connection errors",
		RootCause:   "DB pod not ready/crashed",
		Mitigations: []string{"Restart DB pod", "Increase memory", "Check readiness probes"},
	},
	{
		Pattern:     regexp.MustCompile(`(?i)OOMKilled|OutOfMemoryError`),
		Issue:       "Service OOM",
		RootCause:   "Memory pressure or leak",
		Mitigations: []string{"Increase container memory limit", "Investigate leak", "Scale horizontally"},
	},
	{
		Pattern:     regexp.MustCompile(`(?i)HTTP 500|NullPointerException`),
		Issue:       "HTTP 500 / Null deref",
		RootCause:   "Bug introduced in recent deploy",
		Mitigations: []string{"Rollback to last working version", "Add null checks", "Improve input validation"},
	},
}

// Evaluate runs the rule table over the log corpus, first match wins.
// When nothing matches it returns the Unknown/Inconclusive fallback with an
// escalation recommendation; that fallback is a result, never an error.
func Evaluate(rules []Rule, corpus string) Finding {
	if len(corpus) > maxCorpusBytes {
		corpus = corpus[:maxCorpusBytes]
	}
	for _, r := range rules {
		if r.Pattern.MatchString(corpus) {
			return Finding{
				Issue:       r.Issue,
				RootCause:   r.RootCause,
				Mitigations: r.Mitigations,
				Evidence:    []string{fmt.Sprintf("Matched pattern: %s", r.Pattern.String())},
				Confidence:  0.9,
			}
		}
	}
	return Finding{
		Issue:       "Unknown",
		RootCause:   "Inconclusive",
		Mitigations: []string{"Escalate to on-call", "Gather more logs", "Increase verbosity"},
		Evidence:    []string{"No rule matched"},
		Confidence:  0.2,
	}
}
