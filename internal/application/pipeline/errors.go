package pipeline

import "fmt"

// PhaseError tags an investigation failure with the phase that produced it
// so the terminal error step is attributed to the right phase.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
