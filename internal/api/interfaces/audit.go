package interfaces

import (
	"context"

	"github.com/BenjaminJRies/examen-bentoml/internal/database"
)

// AuditRepository reads persisted prediction audit rows
type AuditRepository interface {
	ListRecent(ctx context.Context, limit int) ([]database.PredictionAudit, error)
	CountBySubject(ctx context.Context, subject string) (int, error)
}
