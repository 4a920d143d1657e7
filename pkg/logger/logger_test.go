package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/BenjaminJRies/examen-bentoml/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	l := New(config.LoggingConfig{Level: level, Format: "json"})
	buf := &bytes.Buffer{}
	l.Logger.SetOutput(buf)
	return l, buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestKeyValueArgs(t *testing.T) {
	l, buf := captureJSON(t, "info")

	l.WithComponent("audit").Info("Flushed entries", "count", 3)
	entry := lastEntry(t, buf)
	assert.Equal(t, "Flushed entries", entry["msg"])
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, float64(3), entry["count"])
}

func TestPrintfArgs(t *testing.T) {
	l, buf := captureJSON(t, "info")

	l.Warning("synced %d of %d", 2, 5)
	entry := lastEntry(t, buf)
	assert.Equal(t, "synced 2 of 5", entry["msg"])
	assert.Equal(t, "warning", entry["level"])
}

func TestLevelFiltering(t *testing.T) {
	l, buf := captureJSON(t, "warn")

	l.Info("hidden")
	l.Debug("hidden too")
	assert.Zero(t, buf.Len())

	require.NoError(t, l.SetLogLevel("debug"))
	l.Debug("visible")
	assert.Equal(t, "visible", lastEntry(t, buf)["msg"])

	assert.Error(t, l.SetLogLevel("loud"))
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	l := New(config.LoggingConfig{Level: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, l.Logger.GetLevel())
}

func TestWithFieldsDoesNotLeak(t *testing.T) {
	l, buf := captureJSON(t, "info")

	l.WithField("request_id", "abc").Info("first")
	l.Info("second")

	entry := lastEntry(t, buf)
	assert.Equal(t, "second", entry["msg"])
	assert.NotContains(t, entry, "request_id")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	l := New(config.LoggingConfig{Level: "info", Format: "text", File: path, MaxSize: 1})
	l.Info("written to disk")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to disk")
}

func TestHTTPLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, buf := captureJSON(t, "info")

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Set("subject", "admin")
	})
	router.Use(l.HTTPLogger())
	router.GET("/missing-auth", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing-auth?x=1", nil))

	entry := lastEntry(t, buf)
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "admin", entry["subject"])
	assert.Equal(t, float64(http.StatusUnauthorized), entry["status_code"])
	assert.Equal(t, "x=1", entry["query"])
}

func TestEventHelpers(t *testing.T) {
	l, buf := captureJSON(t, "info")

	l.SecurityLogger("login_failed", "admin", "INVALID_CREDENTIALS")
	entry := lastEntry(t, buf)
	assert.Equal(t, "security", entry["event_type"])
	assert.Equal(t, "login_failed", entry["event"])

	l.PredictionLogger("admin", "/predict", 4, 0)
	entry = lastEntry(t, buf)
	assert.Equal(t, "prediction", entry["event_type"])
	assert.Equal(t, float64(4), entry["records"])

	l.StructuredError(errors.New("disk full"), map[string]interface{}{"pending": 7})
	entry = lastEntry(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, float64(7), entry["pending"])
}
