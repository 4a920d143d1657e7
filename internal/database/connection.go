package database

import (
	"database/sql"
	"fmt"

	"github.com/BenjaminJRies/examen-bentoml/pkg/config"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL flavour behind a connection.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// NewConnection creates a new database connection based on configuration
func NewConnection(cfg *config.DatabaseConfig) (*sql.DB, Dialect, error) {
	var dsn, driverName string
	var dialect Dialect

	switch cfg.Type {
	case "postgres":
		driverName, dialect = "postgres", DialectPostgres
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)
	case "sqlite":
		driverName, dialect = "sqlite3", DialectSQLite
		dsn = cfg.Path
	default:
		return nil, "", fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	return db, dialect, nil
}
