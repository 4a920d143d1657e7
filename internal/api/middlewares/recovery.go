package middlewares

import (
	"fmt"

	"github.com/BenjaminJRies/examen-bentoml/internal/api/models"
	"github.com/BenjaminJRies/examen-bentoml/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery middleware recovers from panics. The panic value is logged and
// never sent to the caller.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(log.Writer(), func(c *gin.Context, recovered interface{}) {
		log.WithFields(map[string]interface{}{
			"request_id": c.GetString(RequestIDKey),
			"path":       c.Request.URL.Path,
			"panic":      fmt.Sprint(recovered),
		}).Error("Recovered from panic")

		Abort(c, models.ErrInternal)
	})
}
