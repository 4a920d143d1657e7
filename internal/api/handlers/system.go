package handlers

import (
	"net/http"
	"time"

	"github.com/BenjaminJRies/examen-bentoml/internal/api/interfaces"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/models"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "admission_prediction_service"
	DefaultVersion = "1.0.0"
)

// HealthCheck reports liveness and whether the model artifact is loaded.
// A missing model is informational and still answers 200.
func HealthCheck(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		version := services.ModelVersion()
		if version == "" {
			version = DefaultVersion
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       "healthy",
			Service:      ServiceName,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			Version:      version,
			ModelsLoaded: services.ModelLoaded(),
		})
	}
}
