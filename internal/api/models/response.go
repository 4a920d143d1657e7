package models

import (
	"time"

	"github.com/BenjaminJRies/examen-bentoml/internal/database"
	"github.com/BenjaminJRies/examen-bentoml/internal/prediction"
	"github.com/BenjaminJRies/examen-bentoml/internal/validation"
)

// BaseResponse is the envelope used for error responses and listings
type BaseResponse struct {
	Success   bool        `json:"success" example:"false"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp" example:"1640995200"`
	RequestID string      `json:"request_id,omitempty" example:"9f1c2d3e-..."`
}

// ErrorInfo represents error information
type ErrorInfo struct {
	Code    string        `json:"code" example:"VALIDATION_FAILED"`
	Message string        `json:"message" example:"Input validation failed"`
	Fields  []FieldDetail `json:"fields,omitempty"`
}

// FieldDetail names one offending input field. Index is set for batch records.
type FieldDetail struct {
	Field  string `json:"field" example:"GRE_Score"`
	Reason string `json:"reason" example:"must be between 260 and 340"`
	Index  *int   `json:"index,omitempty" example:"1"`
}

// NewErrorResponse wraps an APIError in the response envelope
func NewErrorResponse(err *APIError, requestID string) BaseResponse {
	return BaseResponse{
		Success:   false,
		Error:     err.Info(),
		Timestamp: time.Now().Unix(),
		RequestID: requestID,
	}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status       string `json:"status" example:"healthy"`
	Service      string `json:"service" example:"admission_prediction_service"`
	Timestamp    string `json:"timestamp" example:"2024-05-01T12:00:00Z"`
	Version      string `json:"version" example:"1.0.0"`
	ModelsLoaded bool   `json:"models_loaded" example:"true"`
}

// LoginResponse represents authentication response
type LoginResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType   string `json:"token_type" example:"bearer"`
	ExpiresIn   int64  `json:"expires_in" example:"1800"`
}

// PredictionResponse is the body of a successful single prediction
type PredictionResponse struct {
	prediction.Result
	InputData validation.ApplicantProfile `json:"input_data"`
	User      string                      `json:"user" example:"admin"`
	Status    string                      `json:"status" example:"success"`
	Timestamp string                      `json:"timestamp" example:"2024-05-01T12:00:00Z"`
}

// BatchItem is one scored record of a batch. StudentID is the 1-based
// position of the record in the request.
type BatchItem struct {
	StudentID int `json:"student_id" example:"1"`
	prediction.Result
	InputData validation.ApplicantProfile `json:"input_data"`
}

// BatchPredictionResponse is the body of a successful batch prediction
type BatchPredictionResponse struct {
	Predictions []BatchItem        `json:"predictions"`
	Summary     prediction.Summary `json:"summary"`
	User        string             `json:"user" example:"admin"`
	Status      string             `json:"status" example:"success"`
	Timestamp   string             `json:"timestamp" example:"2024-05-01T12:00:00Z"`
}

// NewPredictionResponse wraps a scored profile for subject
func NewPredictionResponse(result prediction.Result, profile validation.ApplicantProfile, subject string) PredictionResponse {
	return PredictionResponse{
		Result:    result,
		InputData: profile,
		User:      subject,
		Status:    "success",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewBatchPredictionResponse pairs every prediction with its validated record
func NewBatchPredictionResponse(out prediction.BatchResult, subject string) BatchPredictionResponse {
	items := make([]BatchItem, len(out.Predictions))
	for i, result := range out.Predictions {
		items[i] = BatchItem{StudentID: i + 1, Result: result}
		if i < len(out.Profiles) {
			items[i].InputData = out.Profiles[i]
		}
	}

	return BatchPredictionResponse{
		Predictions: items,
		Summary:     out.Summary,
		User:        subject,
		Status:      "success",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// NewSuccessResponse wraps data in the response envelope
func NewSuccessResponse(data interface{}, message, requestID string) BaseResponse {
	return BaseResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
		RequestID: requestID,
	}
}

// AuditLogsData is the payload of GET /v1/audit
type AuditLogsData struct {
	Logs               []database.PredictionAudit `json:"logs"`
	Limit              int                        `json:"limit" example:"50"`
	Total              int                        `json:"total" example:"12"`
	Subject            string                     `json:"subject" example:"admin"`
	SubjectPredictions int                        `json:"subject_predictions" example:"7"`
}
