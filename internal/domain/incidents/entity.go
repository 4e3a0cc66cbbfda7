package incidents

import (
	"encoding/json"
	"time"
)

// ID tipe untuk Incident
type ID string

// Status enum
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusFailed     Status = "FAILED"
)

// Aggregate Root: Incident
type Incident struct {
	ID          ID             `json:"id"`
	Status      Status         `json:"status"`
	Service     string         `json:"service"`
	Environment string         `json:"environment"`
	Severity    string         `json:"severity"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// AlertType reads the alert_type field from the opaque alert payload.
// Empty when the payload has no such field.
func (i *Incident) AlertType() string {
	if i.Payload == nil {
		return ""
	}
	if v, ok := i.Payload["alert_type"].(string); ok {
		return v
	}
	return ""
}

// StepStatus enum
type StepStatus string

const (
	StepInProgress StepStatus = "in_progress"
	StepComplete   StepStatus = "complete"
	StepError      StepStatus = "error"
)

// Step is one append-only progress record against an incident.
// Rows are never rewritten after insert; only the status column may move
// in_progress -> complete/error on the same row.
type Step struct {
	ID         int64             `json:"id"`
	IncidentID ID                `json:"incident_id"`
	Phase      string            `json:"phase"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Status     StepStatus        `json:"status"`
	Data       map[string]string `json:"data,omitempty"`
	TS         time.Time         `json:"ts"`
}

// Report is a persisted investigation artifact. Stored as append-only
// history; readers take the most recent row per incident.
type Report struct {
	ID         int64           `json:"id"`
	IncidentID ID              `json:"incident_id"`
	Structured json.RawMessage `json:"structured"`
	Narrative  string          `json:"narrative"`
	CreatedAt  time.Time       `json:"created_at"`
}
