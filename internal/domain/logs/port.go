package logs

import "context"

// Source port (interface untuk log backend). Implementations read raw log
// text for an incident from local disk or object storage. group is the
// routing hint from the collector and may be used as a fallback location.
type Source interface {
	Fetch(ctx context.Context, incidentID, group string) (string, error)
}
