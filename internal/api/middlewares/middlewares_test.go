package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BenjaminJRies/examen-bentoml/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestExtractToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		header  string
		token   string
		wantErr error
	}{
		{"no header", "", "", auth.ErrMissingToken},
		{"bare scheme", "Bearer", "", auth.ErrMissingToken},
		{"scheme with trailing space", "Bearer ", "", auth.ErrMissingToken},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi", nil},
		{"padded token", "Bearer   abc.def.ghi  ", "abc.def.ghi", nil},
		{"basic auth", "Basic YWRtaW46YWRtaW4xMjM=", "", auth.ErrInvalidSignature},
		{"token without scheme", "abc.def.ghi", "", auth.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/predict", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}

			token, err := extractToken(c)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per client")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("10.0.0.1"), "a new window resets the count")
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(rl.cleanup + time.Second)
	rl.Allow("10.0.0.2")
	rl.evict()

	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRateLimiterCleanupStops(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	rl.cleanup = time.Millisecond

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		rl.cleanupExpiredVisitors(done)
		close(exited)
	}()

	close(done)
	assert.Eventually(t, func() bool {
		select {
		case <-exited:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
