package handlers

import (
	"net/http"

	"github.com/BenjaminJRies/examen-bentoml/internal/api/interfaces"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/middlewares"
	"github.com/BenjaminJRies/examen-bentoml/internal/api/models"
	"github.com/BenjaminJRies/examen-bentoml/internal/auth"

	"github.com/gin-gonic/gin"
)

// Login exchanges a username and password for a bearer token
func Login(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if middlewares.IsBodyTooLarge(err) {
				middlewares.Abort(c, models.ErrPayloadTooLarge)
				return
			}
			middlewares.Abort(c, models.FromAuthError(auth.ErrMissingCredentials))
			return
		}

		token, err := services.AuthService().Login(req.Username, req.Password)
		if err != nil {
			apiErr := models.FromAuthError(err)
			services.GetLogger().SecurityLogger("login_failed", req.Username, apiErr.Code)
			middlewares.Abort(c, apiErr)
			return
		}

		services.GetLogger().Info("User logged in", "subject", token.Subject)
		c.JSON(http.StatusOK, models.LoginResponse{
			AccessToken: token.AccessToken,
			TokenType:   "bearer",
			ExpiresIn:   token.ExpiresIn(),
		})
	}
}
