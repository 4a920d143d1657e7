package api

import (
	"github.com/BenjaminJRies/examen-bentoml/internal/api/handlers"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/interfaces"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes with proper middleware
func SetupRoutes(router *gin.Engine, services interfaces.Services) {
	cfg := services.GetConfig()

	// Global middleware
	router.Use(middlewares.RequestID())
	router.Use(middlewares.Recovery(services.GetLogger()))
	router.Use(middlewares.CORS(cfg.API.CORS))
	router.Use(middlewares.Security())
	router.Use(middlewares.RequestLogging(services.GetLogger()))
	router.Use(middlewares.RateLimit(cfg.API.RateLimit, services.Done()))
	router.Use(middlewares.BodyLimit(cfg.Server.MaxBodyBytes))

	// Health check (no auth required)
	router.POST("/health", handlers.HealthCheck(services))
	router.GET("/health", handlers.HealthCheck(services))

	router.POST("/login", handlers.Login(services))

	setupPredictionRoutes(router.Group("/v1/models/admission_predictor"), services)
	setupAuditRoutes(router.Group("/v1/audit"), services)
}

// setupPredictionRoutes configures routes that require a bearer token
func setupPredictionRoutes(rg *gin.RouterGroup, services interfaces.Services) {
	rg.Use(middlewares.AuthRequired(services))
	{
		rg.POST("/predict", handlers.Predict(services))
		rg.POST("/predict_batch", handlers.PredictBatch(services))
	}
}

// setupAuditRoutes exposes the persisted prediction audit to token holders
func setupAuditRoutes(rg *gin.RouterGroup, services interfaces.Services) {
	rg.Use(middlewares.AuthRequired(services))
	{
		rg.GET("", handlers.GetAuditLogs(services))
	}
}
