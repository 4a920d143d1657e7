package api

import (
	"context"
	"database/sql"
	"sync"

	"github.com/BenjaminJRies/examen-bentoml/internal/api/interfaces"
	"github.com/BenjaminJRies/examen-bentoml/internal/audit"
	"github.com/BenjaminJRies/examen-bentoml/internal/database/repositories"
	"github.com/BenjaminJRies/examen-bentoml/internal/model"
	"github.com/BenjaminJRies/examen-bentoml/internal/prediction"
	"github.com/BenjaminJRies/examen-bentoml/internal/validation"
	"github.com/BenjaminJRies/examen-bentoml/pkg/config"
	"github.com/BenjaminJRies/examen-bentoml/pkg/logger"
)

// Services contains all the dependencies for API handlers. It is built once
// at startup and never mutated afterwards.
type Services struct {
	// Core dependencies
	DB     *sql.DB
	Logger *logger.Logger
	Config *config.Config

	// Recorder is nil when auditing is disabled
	Recorder *audit.Recorder

	authService interfaces.AuthServiceInterface
	validator   *validation.Validator
	model       *model.ScalerModel
	engine      *prediction.Engine
	batch       *prediction.Batch
	sink        audit.Sink
	auditRepo   interfaces.AuditRepository

	done     chan struct{}
	stopOnce sync.Once
}

// NewServices creates a new services container. m may be nil when the model
// artifact failed to load; prediction routes then answer 503. recorder and
// repo are nil when auditing is disabled.
func NewServices(
	cfg *config.Config,
	log *logger.Logger,
	authService interfaces.AuthServiceInterface,
	m *model.ScalerModel,
	db *sql.DB,
	recorder *audit.Recorder,
	repo *repositories.PredictionAuditRepository,
) *Services {
	services := &Services{
		DB:          db,
		Logger:      log,
		Config:      cfg,
		Recorder:    recorder,
		authService: authService,
		validator:   validation.New(),
		model:       m,
		sink:        audit.Nop{},
		done:        make(chan struct{}),
	}

	if m != nil {
		services.engine = prediction.NewEngine(m)
		services.batch = prediction.NewBatch(services.validator, services.engine)
	}
	if recorder != nil {
		services.sink = recorder
	}
	if repo != nil {
		services.auditRepo = repo
	}

	return services
}

// Start starts all background services
func (s *Services) Start() error {
	if s.Recorder == nil {
		return nil
	}

	s.Recorder.SetCallbacks(
		func(written int) {
			s.Logger.Debug("Audit entries written", "count", written)
		},
		func(pending int, err error) {
			s.Logger.StructuredError(err, map[string]interface{}{
				"component": "audit",
				"pending":   pending,
			})
		},
	)
	return s.Recorder.Start()
}

// Stop stops all background services, flushing queued audit entries. Calls
// after the first are no-ops.
func (s *Services) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.Logger.Info("Stopping API services...")
		close(s.done)

		if s.Recorder != nil {
			err = s.Recorder.Stop(ctx)
		}
		if s.DB != nil {
			if cerr := s.DB.Close(); err == nil {
				err = cerr
			}
		}

		s.Logger.Info("All API services stopped")
	})
	return err
}

// Interface implementation methods
func (s *Services) GetLogger() *logger.Logger {
	return s.Logger
}

func (s *Services) GetConfig() *config.Config {
	return s.Config
}

func (s *Services) AuthService() interfaces.AuthServiceInterface {
	return s.authService
}

func (s *Services) Validator() *validation.Validator {
	return s.validator
}

func (s *Services) Engine() *prediction.Engine {
	return s.engine
}

func (s *Services) Batch() *prediction.Batch {
	return s.batch
}

func (s *Services) AuditSink() audit.Sink {
	return s.sink
}

func (s *Services) AuditRepository() interfaces.AuditRepository {
	return s.auditRepo
}

func (s *Services) Done() <-chan struct{} {
	return s.done
}

func (s *Services) ModelLoaded() bool {
	return s.model != nil
}

func (s *Services) ModelVersion() string {
	if s.model == nil {
		return ""
	}
	return s.model.Version()
}

// GetStats returns current service statistics
func (s *Services) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"model": map[string]interface{}{
			"loaded":  s.ModelLoaded(),
			"version": s.ModelVersion(),
		},
		"audit": map[string]interface{}{
			"enabled": s.Recorder != nil,
		},
	}

	if s.Recorder != nil {
		auditStats := stats["audit"].(map[string]interface{})
		auditStats["running"] = s.Recorder.IsRunning()
		auditStats["pending"] = s.Recorder.PendingCount()
	}

	return stats
}
