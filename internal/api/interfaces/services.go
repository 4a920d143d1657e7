package interfaces

import (
	"github.com/BenjaminJRies/examen-bentoml/internal/audit"
	"github.com/BenjaminJRies/examen-bentoml/internal/prediction"
	"github.com/BenjaminJRies/examen-bentoml/internal/validation"
	"github.com/BenjaminJRies/examen-bentoml/pkg/config"
	"github.com/BenjaminJRies/examen-bentoml/pkg/logger"
)

// Services defines the interface for API services
type Services interface {
	GetLogger() *logger.Logger
	GetConfig() *config.Config
	AuthService() AuthServiceInterface
	Validator() *validation.Validator
	// Engine and Batch return nil when no model artifact is loaded.
	Engine() *prediction.Engine
	Batch() *prediction.Batch
	AuditSink() audit.Sink
	// AuditRepository returns nil when auditing is disabled.
	AuditRepository() AuditRepository
	// Done is closed when the services are stopped.
	Done() <-chan struct{}
	ModelLoaded() bool
	ModelVersion() string
}
