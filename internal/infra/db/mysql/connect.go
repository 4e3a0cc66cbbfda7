package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  id           VARCHAR(64) PRIMARY KEY,
  status       VARCHAR(16)  NOT NULL,
  service      VARCHAR(255) NOT NULL,
  environment  VARCHAR(64)  NOT NULL,
  severity     VARCHAR(32)  NOT NULL,
  payload_json JSON,
  created_at   DATETIME     NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS agent_steps(
  id          BIGINT PRIMARY KEY AUTO_INCREMENT,
  incident_id VARCHAR(64) NOT NULL,
  phase       VARCHAR(64) NOT NULL,
  title       VARCHAR(255) NOT NULL,
  message     TEXT NOT NULL,
  status      VARCHAR(16) NOT NULL,
  data_json   JSON,
  ts          DATETIME NOT NULL,
  INDEX idx_steps_incident (incident_id)
);`,
		`CREATE TABLE IF NOT EXISTS reports(
  id              BIGINT PRIMARY KEY AUTO_INCREMENT,
  incident_id     VARCHAR(64) NOT NULL,
  structured_json JSON NOT NULL,
  narrative       MEDIUMTEXT NOT NULL,
  created_at      DATETIME NOT NULL,
  INDEX idx_reports_incident (incident_id)
);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
