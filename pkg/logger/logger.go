package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BenjaminJRies/examen-bentoml/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timestampFormat = "2006-01-02 15:04:05"

// Logger wraps logrus with additional functionality
type Logger struct {
	*logrus.Logger
	fields logrus.Fields
}

// New creates a logger from the logging section of the configuration
func New(cfg config.LoggingConfig) *Logger {
	l := newLogger(cfg.Level)
	l.SetFormatter(cfg.Format)

	if cfg.File != "" {
		logDir := filepath.Dir(cfg.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			l.Warning("failed to create log directory, logging to stdout only", "dir", logDir, "error", err.Error())
			return l
		}
		fileLogger := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		// Write to both file and stdout
		l.Logger.SetOutput(io.MultiWriter(os.Stdout, fileLogger))
	}

	return l
}

// NewLogger creates a new text logger writing to stdout and, when logFile is set,
// to a rotated file.
func NewLogger(level, logFile string) *Logger {
	return New(config.LoggingConfig{
		Level:      level,
		Format:     "text",
		File:       logFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
}

// NewDiscard returns a logger that drops everything; used in tests.
func NewDiscard() *Logger {
	l := newLogger("panic")
	l.Logger.SetOutput(io.Discard)
	return l
}

func newLogger(level string) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)

	return &Logger{
		Logger: log,
		fields: make(logrus.Fields),
	}
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newFields := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &Logger{
		Logger: l.Logger,
		fields: newFields,
	}
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// entry resolves args either as printf arguments (when msg has verbs) or as
// alternating key/value pairs.
func (l *Logger) entry(msg string, args []interface{}) (*logrus.Entry, string) {
	entry := l.Logger.WithFields(l.fields)
	if len(args) == 0 {
		return entry, msg
	}
	if strings.Contains(msg, "%") || len(args)%2 != 0 {
		return entry, fmt.Sprintf(msg, args...)
	}

	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	return entry.WithFields(fields), msg
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	entry, msg := l.entry(msg, args)
	entry.Debug(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	entry, msg := l.entry(msg, args)
	entry.Info(msg)
}

// Warning logs a warning message
func (l *Logger) Warning(msg string, args ...interface{}) {
	entry, msg := l.entry(msg, args)
	entry.Warning(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	entry, msg := l.entry(msg, args)
	entry.Error(msg)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, args ...interface{}) {
	entry, msg := l.entry(msg, args)
	entry.Fatal(msg)
}

// Writer returns an io.Writer for the logger
func (l *Logger) Writer() io.Writer {
	return l.Logger.Writer()
}

// HTTPLogger logs HTTP request details once the handler chain has completed.
// The request ID and authenticated subject are read from the gin context.
func (l *Logger) HTTPLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		entry := l.WithFields(map[string]interface{}{
			"method":      c.Request.Method,
			"path":        path,
			"query":       raw,
			"status_code": status,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
			"request_id":  c.GetString("request_id"),
			"subject":     c.GetString("subject"),
		})

		if status >= 500 {
			entry.Error("HTTP request completed with server error")
		} else if status >= 400 {
			entry.Warning("HTTP request completed with client error")
		} else {
			entry.Info("HTTP request completed")
		}
	}
}

// SecurityLogger logs security-related events such as failed logins
func (l *Logger) SecurityLogger(event, subject, details string) {
	l.WithFields(map[string]interface{}{
		"event_type": "security",
		"event":      event,
		"subject":    subject,
		"details":    details,
		"timestamp":  time.Now().Unix(),
	}).Warning("Security event logged")
}

// PredictionLogger logs a completed inference
func (l *Logger) PredictionLogger(subject, route string, count int, duration time.Duration) {
	l.WithFields(map[string]interface{}{
		"event_type":  "prediction",
		"subject":     subject,
		"route":       route,
		"records":     count,
		"duration_us": duration.Microseconds(),
	}).Info("Prediction served")
}

// StructuredError logs a structured error with context
func (l *Logger) StructuredError(err error, context map[string]interface{}) {
	fields := map[string]interface{}{
		"error":     err.Error(),
		"timestamp": time.Now().Unix(),
	}
	for k, v := range context {
		fields[k] = v
	}

	l.WithFields(fields).Error("Structured error logged")
}

// SetLogLevel dynamically sets the log level
func (l *Logger) SetLogLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Logger.SetLevel(logLevel)
	return nil
}

// SetFormatter sets the log formatter
func (l *Logger) SetFormatter(format string) {
	switch format {
	case "json":
		l.Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	default:
		l.Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	}
}
