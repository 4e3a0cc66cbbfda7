package analysis

// Finding is the structured output of the analyst phase.
type Finding struct {
	Issue       string   `json:"issue"`
	RootCause   string   `json:"root_cause"`
	Mitigations []string `json:"mitigations"`
	Evidence    []string `json:"evidence"`
	Confidence  float64  `json:"confidence,omitempty"`
}

// Inconclusive reports whether this is the low-confidence fallback finding
// produced when no rule matched.
func (f Finding) Inconclusive() bool {
	return f.Issue == "Unknown" && f.RootCause == "Inconclusive"
}
