package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
)

// Ledger is the Postgres implementation of the incident ledger. Same
// semantics as the SQLite ledger; prefer this in shared environments where
// several poller instances race on Claim.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

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
VALUES ($1,$2,$3,$4,$5,$6,$7);
`
	_, err = l.db.ExecContext(ctx, q,
		id, status, inc.Service, inc.Environment, inc.Severity, string(payload), created)
	if err != nil {
		var pe *pq.Error
		if errors.As(err, &pe) && pe.Code == "23505" {
			return "", domain.ErrDuplicate
		}
		return "", err
	}
	return id, nil
}

func (l *Ledger) GetIncident(ctx context.Context, id domain.ID) (*domain.Incident, error) {
	const q = `
SELECT id, status, service, environment, severity, payload_json, created_at
FROM incidents WHERE id=$1 LIMIT 1;
`
	return scanIncident(l.db.QueryRowContext(ctx, q, id))
}

func (l *Ledger) ListIncidents(ctx context.Context, limit int) ([]*domain.Incident, error) {
	if limit <= 0 {
		limit = 200
	}
	const q = `
SELECT id, status, service, environment, severity, payload_json, created_at
FROM incidents ORDER BY created_at DESC, id DESC LIMIT $1;
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
FROM incidents WHERE status=$1 ORDER BY created_at ASC, id ASC;
`
	rows, err := l.db.QueryContext(ctx, q, domain.StatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIncidents(rows)
}

func (l *Ledger) SetStatus(ctx context.Context, id domain.ID, status domain.Status) error {
	cur, err := l.GetIncident(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanTransition(cur.Status, status) {
		return domain.ErrInvalidTransition
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE incidents SET status=$1 WHERE id=$2 AND status=$3`,
		status, id, cur.Status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (l *Ledger) Claim(ctx context.Context, id domain.ID) (bool, error) {
	res, err := l.db.ExecContext(ctx,
		`UPDATE incidents SET status=$1 WHERE id=$2 AND status=$3`,
		domain.StatusInProgress, id, domain.StatusOpen)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *Ledger) Reopen(ctx context.Context, id domain.ID) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE incidents SET status=$1 WHERE id=$2 AND status=$3`,
		domain.StatusOpen, id, domain.StatusFailed)
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
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id;
`
	var stepID int64
	err = l.db.QueryRowContext(ctx, q,
		s.IncidentID, s.Phase, s.Title, s.Message, s.Status, string(data), ts).Scan(&stepID)
	if err != nil {
		return 0, err
	}
	return stepID, nil
}

func (l *Ledger) UpdateStepStatus(ctx context.Context, stepID int64, status domain.StepStatus) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE agent_steps SET status=$1 WHERE id=$2`, status, stepID)
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
FROM agent_steps WHERE incident_id=$1 ORDER BY id ASC;
`
	rows, err := l.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Step
	for rows.Next() {
		var s domain.Step
		var data sql.NullString
		if err := rows.Scan(&s.ID, &s.IncidentID, &s.Phase, &s.Title, &s.Message, &s.Status, &data, &s.TS); err != nil {
			return nil, err
		}
		if data.Valid && data.String != "null" {
			if err := json.Unmarshal([]byte(data.String), &s.Data); err != nil {
				return nil, err
			}
		}
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
VALUES ($1,$2,$3,$4) RETURNING id;
`
	var reportID int64
	err = l.db.QueryRowContext(ctx, q, id, string(payload), narrative, time.Now().UTC()).Scan(&reportID)
	if err != nil {
		return 0, err
	}
	return reportID, nil
}

func (l *Ledger) GetLatestReport(ctx context.Context, id domain.ID) (*domain.Report, error) {
	const q = `
SELECT id, incident_id, structured_json, narrative, created_at
FROM reports WHERE incident_id=$1 ORDER BY id DESC LIMIT 1;
`
	var r domain.Report
	var structured string
	err := l.db.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.IncidentID, &structured, &r.Narrative, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Structured = json.RawMessage(structured)
	return &r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*domain.Incident, error) {
	var inc domain.Incident
	var payload sql.NullString
	err := row.Scan(&inc.ID, &inc.Status, &inc.Service, &inc.Environment, &inc.Severity, &payload, &inc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if payload.Valid && payload.String != "null" {
		if err := json.Unmarshal([]byte(payload.String), &inc.Payload); err != nil {
			return nil, err
		}
	}
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
