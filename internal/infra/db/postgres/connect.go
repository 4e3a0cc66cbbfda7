package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS incidents(
  id           TEXT PRIMARY KEY,
  status       TEXT NOT NULL,
  service      TEXT NOT NULL,
  environment  TEXT NOT NULL,
  severity     TEXT NOT NULL,
  payload_json JSONB,
  created_at   TIMESTAMPTZ NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS agent_steps(
  id          BIGSERIAL PRIMARY KEY,
  incident_id TEXT NOT NULL REFERENCES incidents(id),
  phase       TEXT NOT NULL,
  title       TEXT NOT NULL,
  message     TEXT NOT NULL,
  status      TEXT NOT NULL,
  data_json   JSONB,
  ts          TIMESTAMPTZ NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_steps_incident ON agent_steps(incident_id);`,
		`CREATE TABLE IF NOT EXISTS reports(
  id              BIGSERIAL PRIMARY KEY,
  incident_id     TEXT NOT NULL REFERENCES incidents(id),
  structured_json JSONB NOT NULL,
  narrative       TEXT NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_reports_incident ON reports(incident_id);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
