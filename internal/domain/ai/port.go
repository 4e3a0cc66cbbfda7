package ai

import (
	"context"

	"github.com/bryanwahyu/incident-responder/internal/domain/incidents"
)

// Agent drives a tool-calling investigation for one incident: fetch the
// log, retrieve knowledge-base context, then store the final report. The
// implementation owns tool sequencing and step logging; a nil error means
// a report was persisted.
type Agent interface {
	Investigate(ctx context.Context, inc *incidents.Incident) error
}
