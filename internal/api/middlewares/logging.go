package middlewares

import (
	"github.com/BenjaminJRies/examen-bentoml/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the request ID
const RequestIDKey = "request_id"

// RequestID assigns every request an ID, reusing a well-formed X-Request-ID
// sent by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// RequestLogging middleware logs HTTP requests once they complete
func RequestLogging(log *logger.Logger) gin.HandlerFunc {
	return log.WithComponent("http").HTTPLogger()
}
