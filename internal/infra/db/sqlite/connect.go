package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS incidents(
  id           TEXT PRIMARY KEY,
  status       TEXT NOT NULL,
  service      TEXT NOT NULL,
  environment  TEXT NOT NULL,
  severity     TEXT NOT NULL,
  payload_json TEXT,
  created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_steps(
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  incident_id TEXT NOT NULL REFERENCES incidents(id),
  phase       TEXT NOT NULL,
  title       TEXT NOT NULL,
  message     TEXT NOT NULL,
  status      TEXT NOT NULL,
  data_json   TEXT,
  ts          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reports(
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  incident_id     TEXT NOT NULL REFERENCES incidents(id),
  structured_json TEXT NOT NULL,
  narrative       TEXT NOT NULL,
  created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS kb_vectors(
  id         TEXT PRIMARY KEY,
  text_chunk TEXT NOT NULL,
  embedding  BLOB NOT NULL,
  created_at TEXT NOT NULL
);
`

// Connect opens (or creates) the SQLite database and ensures the schema.
// Pass ":memory:" for an in-memory database (used by tests).
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single connection avoids "database is locked" under concurrent writers.
	db.SetMaxOpenConns(1)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
