package logs

import (
	"errors"
	"fmt"
	"testing"
)

func TestRouteGroup(t *testing.T) {
	cases := []struct {
		alertType string
		want      string
	}{
		{"db_connection", "db"},
		{"DB outage", "db"},
		{"cpu_spike", "infra"},
		{"oom_infra", "infra"},
		{"infra_degraded", "infra"},
		{"http_errors", "web"},
		{"", "web"},
		{"latency", "web"},
	}
	for _, c := range cases {
		if got := RouteGroup(c.alertType); got != c.want {
			t.Errorf("RouteGroup(%q) = %q, want %q", c.alertType, got, c.want)
		}
	}
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{
		IncidentID: "INC001",
		Attempted:  []string{"logs/INC001/INC001.log", "logs/INC001.log"},
	}
	want := "log not found for incident INC001. Tried: logs/INC001/INC001.log, logs/INC001.log"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("collector: %w", err)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound(wrapped) = false")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("IsNotFound(other) = true")
	}
	if IsNotFound(ErrUnavailable) {
		t.Error("IsNotFound(ErrUnavailable) = true")
	}
}
