package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/BenjaminJRies/examen-bentoml/internal/database"
)

type PredictionAuditRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewPredictionAuditRepository(db *sql.DB, dialect database.Dialect) *PredictionAuditRepository {
	return &PredictionAuditRepository{db: db, dialect: dialect}
}

const insertPredictionAudit = `
        INSERT INTO prediction_audit (request_id, subject, route, batch_index, score, interpretation, features, client_ip, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

// Insert stores a single audit row
func (r *PredictionAuditRepository) Insert(ctx context.Context, a *database.PredictionAudit) error {
	_, err := r.db.ExecContext(ctx, r.rebind(insertPredictionAudit), auditArgs(a)...)
	return err
}

// InsertBatch stores all rows in one transaction. Either every row is written
// or none is.
func (r *PredictionAuditRepository) InsertBatch(ctx context.Context, rows []database.PredictionAudit) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.rebind(insertPredictionAudit))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, auditArgs(&rows[i])...); err != nil {
			return fmt.Errorf("insert audit row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListRecent returns the newest audit rows first
func (r *PredictionAuditRepository) ListRecent(ctx context.Context, limit int) ([]database.PredictionAudit, error) {
	query := `
        SELECT id, request_id, subject, route, batch_index, score, interpretation, features, client_ip, created_at
        FROM prediction_audit
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, r.rebind(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []database.PredictionAudit
	for rows.Next() {
		var a database.PredictionAudit
		var requestID, clientIP sql.NullString
		err := rows.Scan(&a.ID, &requestID, &a.Subject, &a.Route, &a.BatchIndex,
			&a.Score, &a.Interpretation, &a.Features, &clientIP, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		a.RequestID = requestID.String
		a.ClientIP = clientIP.String
		audits = append(audits, a)
	}

	return audits, rows.Err()
}

// CountBySubject counts the audit rows recorded for one authenticated user
func (r *PredictionAuditRepository) CountBySubject(ctx context.Context, subject string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM prediction_audit WHERE subject = ?"
	err := r.db.QueryRowContext(ctx, r.rebind(query), subject).Scan(&count)
	return count, err
}

func auditArgs(a *database.PredictionAudit) []interface{} {
	return []interface{}{
		a.RequestID, a.Subject, a.Route, a.BatchIndex, a.Score,
		a.Interpretation, a.Features, a.ClientIP, a.CreatedAt,
	}
}

// rebind rewrites ? placeholders into $n for postgres.
func (r *PredictionAuditRepository) rebind(query string) string {
	if r.dialect != database.DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
