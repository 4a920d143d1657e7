package interfaces

import "github.com/BenjaminJRies/examen-bentoml/internal/auth"

// AuthServiceInterface issues and checks bearer tokens
type AuthServiceInterface interface {
	Login(username, password string) (auth.Token, error)
	Validate(token string) (string, error)
}
