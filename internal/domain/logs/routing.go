package logs

import "strings"

// RouteGroup picks a log group for an alert type by simple keyword match:
// db-ish alerts go to "db", infra/cpu/oom alerts to "infra", everything
// else to "web".
func RouteGroup(alertType string) string {
	t := strings.ToLower(alertType)
	switch {
	case strings.Contains(t, "db"):
		return "db"
	case strings.Contains(t, "cpu"), strings.Contains(t, "oom"), strings.Contains(t, "infra"):
		return "infra"
	default:
		return "web"
	}
}
