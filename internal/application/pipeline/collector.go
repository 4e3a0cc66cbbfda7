package pipeline

import (
	"context"

	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
	"github.com/bryanwahyu/incident-responder/internal/domain/logs"
)

// LogCollector routes the incident to a log group by keyword match on the
// alert_type payload field and fetches the raw log from the configured
// backend. Not-found propagates so downstream phases never run on missing
// data.
type LogCollector struct {
	Source logs.Source
}

func (c *LogCollector) Collect(ctx context.Context, inc *domain.Incident) (Collected, error) {
	group := logs.RouteGroup(inc.AlertType())
	text, err := c.Source.Fetch(ctx, string(inc.ID), group)
	if err != nil {
		return Collected{Group: group}, err
	}
	return Collected{Group: group, Text: text}, nil
}
