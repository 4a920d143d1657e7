package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BenjaminJRies/examen-bentoml/internal/api"
	"github.com/BenjaminJRies/examen-bentoml/internal/audit"
	"github.com/BenjaminJRies/examen-bentoml/internal/auth"
	"github.com/BenjaminJRies/examen-bentoml/internal/database"
	"github.com/BenjaminJRies/examen-bentoml/internal/database/repositories"
	"github.com/BenjaminJRies/examen-bentoml/internal/model"
	"github.com/BenjaminJRies/examen-bentoml/pkg/config"
	"github.com/BenjaminJRies/examen-bentoml/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.NewLogger("error", "").Fatal("Failed to load config", "error", err.Error())
	}

	log := logger.New(cfg.Logging)
	if cfg.IsDevelopment() {
		log.WithField("config", cfg.SanitizeForLogging()).Info("Configuration loaded")
	}

	services, err := buildServices(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialise services", "error", err.Error())
	}

	if err := run(cfg, log, services); err != nil {
		log.Fatal("Server exited with error", "error", err.Error())
	}
	log.Info("Server stopped")
}

// buildServices loads every read-only dependency once: the model artifact,
// the credential table with its signing secret, and the optional audit store.
func buildServices(cfg *config.Config, log *logger.Logger) (*api.Services, error) {
	m, err := model.Load(cfg.Model.Path)
	if err != nil {
		if cfg.Model.Required {
			return nil, err
		}
		log.Error("Model artifact not loaded, predictions disabled", "path", cfg.Model.Path, "error", err.Error())
	} else {
		log.Info("Model artifact loaded", "name", cfg.Model.Name, "version", m.Version(), "path", cfg.Model.Path)
	}

	authService, generated, err := auth.NewServiceFromConfig(cfg.Security)
	if err != nil {
		return nil, err
	}
	if generated {
		log.Warning("No JWT secret configured, generated an ephemeral one. Tokens will not survive a restart")
	}

	var db *sql.DB
	var recorder *audit.Recorder
	var repo *repositories.PredictionAuditRepository
	if cfg.Audit.Enabled {
		var dialect database.Dialect
		db, dialect, err = openAuditDatabase(&cfg.Database)
		if err != nil {
			return nil, err
		}
		repo = repositories.NewPredictionAuditRepository(db, dialect)
		recorder = audit.NewRecorder(repo, log, cfg.Audit.FlushInterval, cfg.Audit.BatchSize)
		log.Info("Prediction audit enabled", "database", cfg.Database.Type)
	}

	return api.NewServices(cfg, log, authService, m, db, recorder, repo), nil
}

func openAuditDatabase(cfg *config.DatabaseConfig) (*sql.DB, database.Dialect, error) {
	db, dialect, err := database.NewConnection(cfg)
	if err != nil {
		return nil, "", err
	}
	if err := database.RunMigrations(db, dialect); err != nil {
		db.Close()
		return nil, "", err
	}
	return db, dialect, nil
}

// run serves HTTP until SIGINT or SIGTERM, then drains connections and flushes
// the audit queue.
func run(cfg *config.Config, log *logger.Logger, services *api.Services) error {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	api.SetupRoutes(router, services)

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	if err := services.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting admission prediction server", "address", srv.Addr, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		log.WithFields(services.GetStats()).Debug("Final service statistics")
		return errors.Join(err, services.Stop(shutdownCtx))
	})

	return g.Wait()
}
