package database

import (
	"database/sql"
	"fmt"
)

// RunMigrations creates the audit schema if it does not exist yet
func RunMigrations(db *sql.DB, dialect Dialect) error {
	var migrations []string
	switch dialect {
	case DialectPostgres:
		migrations = []string{createPredictionAuditTablePostgres, createIndices}
	case DialectSQLite:
		migrations = []string{createPredictionAuditTableSQLite, createIndices}
	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const createPredictionAuditTableSQLite = `
CREATE TABLE IF NOT EXISTS prediction_audit (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id VARCHAR(64),
    subject VARCHAR(255) NOT NULL,
    route VARCHAR(100) NOT NULL,
    batch_index INTEGER NOT NULL DEFAULT 0,
    score REAL NOT NULL,
    interpretation TEXT NOT NULL,
    features TEXT NOT NULL,
    client_ip VARCHAR(45),
    created_at TIMESTAMP NOT NULL
);`

const createPredictionAuditTablePostgres = `
CREATE TABLE IF NOT EXISTS prediction_audit (
    id BIGSERIAL PRIMARY KEY,
    request_id VARCHAR(64),
    subject VARCHAR(255) NOT NULL,
    route VARCHAR(100) NOT NULL,
    batch_index INTEGER NOT NULL DEFAULT 0,
    score DOUBLE PRECISION NOT NULL,
    interpretation TEXT NOT NULL,
    features TEXT NOT NULL,
    client_ip VARCHAR(45),
    created_at TIMESTAMPTZ NOT NULL
);`

const createIndices = `
CREATE INDEX IF NOT EXISTS idx_prediction_audit_subject ON prediction_audit (subject);
CREATE INDEX IF NOT EXISTS idx_prediction_audit_created_at ON prediction_audit (created_at);`
