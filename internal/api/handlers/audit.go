package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/BenjaminJRies/examen-bentoml/internal/api/interfaces"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/middlewares"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/models"
	"github.com/BenjaminJRies/examen-bentoml/internal/database"
	"github.com/BenjaminJRies/examen-bentoml/internal/prediction"
	"github.com/BenjaminJRies/examen-bentoml/internal/validation"

	"github.com/gin-gonic/gin"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 1000
)

type auditEntry = database.PredictionAudit

// GetAuditLogs lists the most recent persisted predictions, plus how many
// predictions a subject has made. subject defaults to the caller.
func GetAuditLogs(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		repo := services.AuditRepository()
		if repo == nil {
			middlewares.Abort(c, models.ErrAuditUnavailable)
			return
		}

		limit := defaultAuditLimit
		if limitStr := c.Query("limit"); limitStr != "" {
			if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= maxAuditLimit {
				limit = l
			}
		}
		subject := c.DefaultQuery("subject", c.GetString(middlewares.SubjectKey))

		ctx := c.Request.Context()
		logs, err := repo.ListRecent(ctx, limit)
		if err != nil {
			services.GetLogger().Error("Error getting audit logs", "error", err.Error())
			middlewares.Abort(c, models.ErrInternal)
			return
		}
		count, err := repo.CountBySubject(ctx, subject)
		if err != nil {
			services.GetLogger().Error("Error counting audit logs", "subject", subject, "error", err.Error())
			middlewares.Abort(c, models.ErrInternal)
			return
		}

		if logs == nil {
			logs = []database.PredictionAudit{}
		}
		c.JSON(http.StatusOK, models.NewSuccessResponse(models.AuditLogsData{
			Logs:               logs,
			Limit:              limit,
			Total:              len(logs),
			Subject:            subject,
			SubjectPredictions: count,
		}, "Audit logs retrieved successfully", c.GetString(middlewares.RequestIDKey)))
	}
}

// newAuditEntry builds the audit row for one scored record. The profile is
// stored as JSON.
func newAuditEntry(c *gin.Context, subject string, index int, profile validation.ApplicantProfile, result prediction.Result) auditEntry {
	encoded, err := json.Marshal(profile)
	if err != nil {
		encoded = []byte("{}")
	}

	return auditEntry{
		RequestID:      c.GetString(middlewares.RequestIDKey),
		Subject:        subject,
		Route:          c.FullPath(),
		BatchIndex:     index,
		Score:          result.Score,
		Interpretation: result.Interpretation,
		Features:       string(encoded),
		ClientIP:       c.ClientIP(),
		CreatedAt:      time.Now().UTC(),
	}
}
