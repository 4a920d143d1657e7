package middlewares

import (
	"strings"

	"github.com/BenjaminJRies/examen-bentoml/internal/api/interfaces"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/models"
	"github.com/BenjaminJRies/examen-bentoml/internal/auth"

	"github.com/gin-gonic/gin"
)

// SubjectKey is the gin context key holding the authenticated username
const SubjectKey = "subject"

// AuthRequired middleware validates bearer tokens before any body is read
func AuthRequired(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err == nil {
			var subject string
			subject, err = services.AuthService().Validate(token)
			if err == nil {
				c.Set(SubjectKey, subject)
				c.Next()
				return
			}
		}

		apiErr := models.FromAuthError(err)
		services.GetLogger().SecurityLogger("token_rejected", "", apiErr.Code)
		Abort(c, apiErr)
	}
}

// extractToken reads the token from an "Authorization: Bearer <token>" header.
// A missing header or a bare "Bearer" is ErrMissingToken, any other scheme
// ErrInvalidSignature.
func extractToken(c *gin.Context) (string, error) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", auth.ErrMissingToken
	}

	scheme, token, _ := strings.Cut(authHeader, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", auth.ErrInvalidSignature
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}

// Abort writes the error envelope and stops the handler chain
func Abort(c *gin.Context, apiErr *models.APIError) {
	c.AbortWithStatusJSON(apiErr.StatusCode, models.NewErrorResponse(apiErr, c.GetString(RequestIDKey)))
}
