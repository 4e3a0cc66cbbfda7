package incidents

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusOpen, StatusInProgress, true},
		{StatusInProgress, StatusDone, true},
		{StatusInProgress, StatusFailed, true},
		{StatusOpen, StatusDone, false},
		{StatusOpen, StatusFailed, false},
		{StatusDone, StatusOpen, false},
		{StatusDone, StatusInProgress, false},
		{StatusFailed, StatusOpen, false},
		{StatusFailed, StatusInProgress, false},
		{StatusInProgress, StatusOpen, false},
		{StatusOpen, StatusOpen, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusDone, StatusFailed} {
		if !Terminal(s) {
			t.Errorf("Terminal(%s) = false, want true", s)
		}
	}
	for _, s := range []Status{StatusOpen, StatusInProgress} {
		if Terminal(s) {
			t.Errorf("Terminal(%s) = true, want false", s)
		}
	}
}

func TestAlertType(t *testing.T) {
	inc := &Incident{Payload: map[string]any{"alert_type": "db_connection"}}
	if got := inc.AlertType(); got != "db_connection" {
		t.Errorf("AlertType() = %q, want db_connection", got)
	}

	for _, inc := range []*Incident{
		{},
		{Payload: map[string]any{}},
		{Payload: map[string]any{"alert_type": 42}},
	} {
		if got := inc.AlertType(); got != "" {
			t.Errorf("AlertType() = %q, want empty", got)
		}
	}
}
