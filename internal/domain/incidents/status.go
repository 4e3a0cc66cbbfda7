package incidents

// CanTransition reports whether an incident may move from one status to
// another on its own. OPEN -> IN_PROGRESS -> DONE|FAILED; DONE and FAILED
// are terminal. The operator reset FAILED -> OPEN goes through Ledger.Reopen
// and is deliberately not part of this graph.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusOpen:
		return to == StatusInProgress
	case StatusInProgress:
		return to == StatusDone || to == StatusFailed
	default:
		return false
	}
}

// Terminal reports whether a status has no outgoing transitions.
func Terminal(s Status) bool {
	return s == StatusDone || s == StatusFailed
}
