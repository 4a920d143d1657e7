package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/BenjaminJRies/examen-bentoml/internal/api/interfaces"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/middlewares"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/models"

	"github.com/gin-gonic/gin"
)

// Predict scores a single applicant profile
func Predict(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		engine := services.Engine()
		if engine == nil {
			middlewares.Abort(c, models.ErrModelUnavailable)
			return
		}

		var raw interface{}
		if err := bindJSON(c, &raw); err != nil {
			abortBodyError(c, err, "body", "must be a JSON object")
			return
		}

		profile, err := services.Validator().Validate(raw)
		if err != nil {
			middlewares.Abort(c, models.FromValidationError(err))
			return
		}

		result := engine.Predict(profile)

		subject := c.GetString(middlewares.SubjectKey)
		services.AuditSink().Record(newAuditEntry(c, subject, 0, profile, result))
		services.GetLogger().PredictionLogger(subject, c.FullPath(), 1, time.Since(start))

		c.JSON(http.StatusOK, models.NewPredictionResponse(result, profile, subject))
	}
}

// PredictBatch scores every record of {"students": [...]}. One invalid record
// rejects the whole batch.
func PredictBatch(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		batch := services.Batch()
		if batch == nil {
			middlewares.Abort(c, models.ErrModelUnavailable)
			return
		}

		var req models.BatchRequest
		if err := bindJSON(c, &req); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field == "students" {
				abortBodyError(c, err, "students", "must be an array")
				return
			}
			abortBodyError(c, err, "body", "must be a JSON object")
			return
		}
		if req.Students == nil {
			abortBodyError(c, nil, "students", "field required")
			return
		}

		out, err := batch.PredictBatch(req.Students)
		if err != nil {
			middlewares.Abort(c, models.FromValidationError(err))
			return
		}

		subject := c.GetString(middlewares.SubjectKey)
		if len(out.Predictions) > 0 {
			entries := make([]auditEntry, len(out.Predictions))
			for i, profile := range out.Profiles {
				entries[i] = newAuditEntry(c, subject, i, profile, out.Predictions[i])
			}
			services.AuditSink().Record(entries...)
		}
		services.GetLogger().PredictionLogger(subject, c.FullPath(), len(out.Predictions), time.Since(start))

		c.JSON(http.StatusOK, models.NewBatchPredictionResponse(out, subject))
	}
}

// bindJSON decodes the request body into dst. Numbers stay json.Number so an
// out-of-range literal is reported on its field instead of failing the body.
func bindJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil {
		return io.EOF
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

// abortBodyError rejects an unreadable body. Oversized bodies get 413, the
// rest a 422 naming field.
func abortBodyError(c *gin.Context, err error, field, reason string) {
	if err != nil && middlewares.IsBodyTooLarge(err) {
		middlewares.Abort(c, models.ErrPayloadTooLarge)
		return
	}

	apiErr := models.NewAPIError(models.ErrCodeValidationFailed, "Input validation failed", http.StatusUnprocessableEntity).
		WithField(field, reason)
	middlewares.Abort(c, apiErr)
}
