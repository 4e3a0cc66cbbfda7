package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
)

// Ledger is the SQLite implementation of the incident ledger. All writes are
// synchronous commits (single-row insert/update); multi-step sequences are
// deliberately not wrapped in one transaction so a crash leaves a legible
// partial state.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// CreateIncident insert incident baru; generate uuid kalau id kosong
func (l *Ledger) CreateIncident(ctx context.Context, inc *domain.Incident) (domain.ID, error) {
	id := inc.ID
	if id == "" {
		id = domain.ID(uuid.New().String())
	}
	status := inc.Status
	if status == "" {
		status = domain.StatusOpen
	}
	created := inc.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	payload, err := json.Marshal(inc.Payload)
	if err != nil {
		return "", err
	}

	const q = `
INSERT INTO incidents(id, status, service, environment, severity, payload_json, created_at)
VALUES (?,?,?,?,?,?,?);
`
	_, err = l.db.ExecContext(ctx, q,
		id, status, inc.Service, inc.Environment, inc.Severity,
		string(payload), created.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", domain.ErrDuplicate
		}
		return "", err
	}
	return id, nil
}

func (l *Ledger) GetIncident(ctx context.Context, id domain.ID) (*domain.Incident, error) {
	const q = `
SELECT id, status, service, environment, severity, payload_json, created_at
FROM incidents WHERE id=? LIMIT 1;
`
	return scanIncident(l.db.QueryRowContext(ctx, q, id))
}

func (l *Ledger) ListIncidents(ctx context.Context, limit int) ([]*domain.Incident, error) {
	if limit <= 0 {
		limit = 200
	}
	const q = `
SELECT id, status, service, environment, severity, payload_json, created_at
FROM incidents ORDER BY created_at DESC, id DESC LIMIT ?;
`
	rows, err := l.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIncidents(rows)
}

func (l *Ledger) ListOpen(ctx context.Context) ([]*domain.Incident, error) {
	const q = `
SELECT id, status, service, environment, severity, payload_json, created_at
FROM incidents WHERE status=? ORDER BY created_at ASC, id ASC;
`
	rows, err := l.db.QueryContext(ctx, q, domain.StatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIncidents(rows)
}

// SetStatus applies a validated transition, compare-and-set against the
// current status so a concurrent writer cannot slip an illegal move in
// between read and update.
func (l *Ledger) SetStatus(ctx context.Context, id domain.ID, status domain.Status) error {
	cur, err := l.GetIncident(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanTransition(cur.Status, status) {
		return domain.ErrInvalidTransition
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE incidents SET status=? WHERE id=? AND status=?`,
		status, id, cur.Status,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Status moved under us; whatever it is now, this transition lost.
		return domain.ErrInvalidTransition
	}
	return nil
}

// Claim is the mutual-exclusion gate for the poller: OPEN -> IN_PROGRESS as
// a single compare-and-set. Only the claimer that flipped the row proceeds.
func (l *Ledger) Claim(ctx context.Context, id domain.ID) (bool, error) {
	res, err := l.db.ExecContext(ctx,
		`UPDATE incidents SET status=? WHERE id=? AND status=?`,
		domain.StatusInProgress, id, domain.StatusOpen,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Reopen resets a FAILED incident to OPEN. This is the only way out of a
// terminal state and exists for operators, not for the poller.
func (l *Ledger) Reopen(ctx context.Context, id domain.ID) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE incidents SET status=? WHERE id=? AND status=?`,
		domain.StatusOpen, id, domain.StatusFailed,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := l.GetIncident(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (l *Ledger) AppendStep(ctx context.Context, s *domain.Step) (int64, error) {
	ts := s.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	data, err := json.Marshal(s.Data)
	if err != nil {
		return 0, err
	}
	const q = `
INSERT INTO agent_steps(incident_id, phase, title, message, status, data_json, ts)
VALUES (?,?,?,?,?,?,?);
`
	res, err := l.db.ExecContext(ctx, q,
		s.IncidentID, s.Phase, s.Title, s.Message, s.Status,
		string(data), ts.Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (l *Ledger) UpdateStepStatus(ctx context.Context, stepID int64, status domain.StepStatus) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE agent_steps SET status=? WHERE id=?`, status, stepID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrStepNotFound
	}
	return nil
}

func (l *Ledger) ListSteps(ctx context.Context, id domain.ID) ([]*domain.Step, error) {
	const q = `
SELECT id, incident_id, phase, title, message, status, data_json, ts
FROM agent_steps WHERE incident_id=? ORDER BY id ASC;
`
	rows, err := l.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Step
	for rows.Next() {
		var s domain.Step
		var data, ts string
		if err := rows.Scan(&s.ID, &s.IncidentID, &s.Phase, &s.Title, &s.Message, &s.Status, &data, &ts); err != nil {
			return nil, err
		}
		if data != "" && data != "null" {
			if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
				return nil, err
			}
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, err
		}
		s.TS = t
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (l *Ledger) SaveReport(ctx context.Context, id domain.ID, structured any, narrative string) (int64, error) {
	payload, err := json.Marshal(structured)
	if err != nil {
		return 0, err
	}
	const q = `
INSERT INTO reports(incident_id, structured_json, narrative, created_at)
VALUES (?,?,?,?);
`
	res, err := l.db.ExecContext(ctx, q,
		id, string(payload), narrative, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (l *Ledger) GetLatestReport(ctx context.Context, id domain.ID) (*domain.Report, error) {
	const q = `
SELECT id, incident_id, structured_json, narrative, created_at
FROM reports WHERE incident_id=? ORDER BY id DESC LIMIT 1;
`
	var r domain.Report
	var structured, created string
	err := l.db.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.IncidentID, &structured, &r.Narrative, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Structured = json.RawMessage(structured)
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = t
	return &r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*domain.Incident, error) {
	var inc domain.Incident
	var payload, created string
	err := row.Scan(&inc.ID, &inc.Status, &inc.Service, &inc.Environment, &inc.Severity, &payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if payload != "" && payload != "null" {
		if err := json.Unmarshal([]byte(payload), &inc.Payload); err != nil {
			return nil, err
		}
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, err
	}
	inc.CreatedAt = t
	return &inc, nil
}

func collectIncidents(rows *sql.Rows) ([]*domain.Incident, error) {
	var out []*domain.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}
