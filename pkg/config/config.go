package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Model    ModelConfig    `mapstructure:"model"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// ModelConfig describes where the frozen scaler/regression artifact lives
type ModelConfig struct {
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Required bool   `mapstructure:"required"` // refuse to start without an artifact
}

// UserConfig is one entry of the fixed credential table.
// Either PasswordHash (bcrypt) or Password must be set. Kept as a list
// because viper folds map keys to lower case and usernames are case-sensitive.
type UserConfig struct {
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

// SecurityConfig holds token and credential configuration
type SecurityConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTExpiration time.Duration `mapstructure:"jwt_expiration"`
	Users         []UserConfig  `mapstructure:"users"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// APIConfig holds API-related configuration
type APIConfig struct {
	RateLimit int        `mapstructure:"rate_limit"` // requests per minute, 0 disables
	CORS      CORSConfig `mapstructure:"cors"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// AuditConfig controls the asynchronous prediction audit trail
type AuditConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	BatchSize     int           `mapstructure:"batch_size"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Type         string        `mapstructure:"type"` // postgres, sqlite
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	Path         string        `mapstructure:"path"`    // For SQLite
	SSLMode      string        `mapstructure:"sslmode"` // For PostgreSQL
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// LoadConfig loads configuration from an optional .env file, the config file and
// environment variables, in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("ADMISSION")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and env vars
	}

	overrideWithEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 8<<20)

	// Model defaults
	v.SetDefault("model.name", "admission_predictor")
	v.SetDefault("model.path", "./models/admission_model.yaml")
	v.SetDefault("model.required", false)

	// Security defaults
	v.SetDefault("security.jwt_expiration", "30m")
	v.SetDefault("security.users", []map[string]interface{}{
		{"username": "admin", "password": "admin123"},
		{"username": "user", "password": "user123"},
		{"username": "test", "password": "test123"},
	})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// API defaults
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.cors.allowed_origins", []string{"*"})
	v.SetDefault("api.cors.max_age", 86400)

	// Audit defaults
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.flush_interval", "5s")
	v.SetDefault("audit.batch_size", 100)

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./admission_audit.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")
}

// overrideWithEnvVars overrides config with specific environment variables
func overrideWithEnvVars(v *viper.Viper) {
	envMappings := map[string]string{
		"JWT_SECRET":  "security.jwt_secret",
		"MODEL_PATH":  "model.path",
		"DB_TYPE":     "database.type",
		"DB_HOST":     "database.host",
		"DB_USER":     "database.user",
		"DB_PASSWORD": "database.password",
		"DB_NAME":     "database.dbname",
		"DB_PATH":     "database.path",
		"LOG_LEVEL":   "logging.level",
		"GIN_MODE":    "server.mode",
		"PORT":        "server.port",
	}

	// legacy name, JWT_SECRET wins when both are set
	if value := os.Getenv("JWT_SECRET_KEY"); value != "" && os.Getenv("JWT_SECRET") == "" {
		v.Set("security.jwt_secret", value)
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}

	if value := os.Getenv("DB_PORT"); value != "" {
		if port, err := strconv.Atoi(value); err == nil {
			v.Set("database.port", port)
		}
	}
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return fmt.Errorf("server port must be numeric, got %q", config.Server.Port)
	}

	switch config.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", config.Server.Mode)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("unknown logging level %q", config.Logging.Level)
	}

	if config.Security.JWTExpiration <= 0 {
		return fmt.Errorf("security.jwt_expiration must be positive")
	}

	if len(config.Security.Users) == 0 {
		return fmt.Errorf("at least one user must be configured")
	}
	seen := make(map[string]bool, len(config.Security.Users))
	for _, user := range config.Security.Users {
		if user.Username == "" {
			return fmt.Errorf("user names must not be empty")
		}
		if seen[user.Username] {
			return fmt.Errorf("user %q is configured twice", user.Username)
		}
		seen[user.Username] = true
		if user.Password == "" && user.PasswordHash == "" {
			return fmt.Errorf("user %q needs a password or password_hash", user.Username)
		}
	}

	if config.Model.Path == "" {
		return fmt.Errorf("model path is required")
	}

	if config.Audit.Enabled {
		if config.Audit.FlushInterval <= 0 {
			return fmt.Errorf("audit.flush_interval must be positive")
		}
		switch config.Database.Type {
		case "postgres":
			if config.Database.Host == "" || config.Database.User == "" {
				return fmt.Errorf("postgres requires host and user")
			}
		case "sqlite":
			if config.Database.Path == "" {
				return fmt.Errorf("sqlite requires path")
			}
		default:
			return fmt.Errorf("unsupported database type: %s", config.Database.Type)
		}
	}

	if config.Audit.BatchSize <= 0 {
		config.Audit.BatchSize = 100
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Mode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// SanitizeForLogging returns a copy of the config with sensitive data redacted
func (c *Config) SanitizeForLogging() *Config {
	sanitized := *c

	if sanitized.Database.Password != "" {
		sanitized.Database.Password = "[REDACTED]"
	}

	if sanitized.Security.JWTSecret != "" {
		sanitized.Security.JWTSecret = "[REDACTED]"
	}

	users := make([]UserConfig, len(c.Security.Users))
	for i, user := range c.Security.Users {
		users[i] = UserConfig{Username: user.Username, PasswordHash: "[REDACTED]"}
	}
	sanitized.Security.Users = users

	return &sanitized
}
