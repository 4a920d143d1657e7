package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/BenjaminJRies/examen-bentoml/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultLifetime is the token lifetime used when none is configured.
const DefaultLifetime = 30 * time.Minute

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingToken       = errors.New("authorization token required")
	ErrInvalidSignature   = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
)

// Claims represents JWT claims. Subject, IssuedAt, ExpiresAt and ID are used.
type Claims struct {
	jwt.RegisteredClaims
}

// Token is an issued access token and its validity window.
type Token struct {
	AccessToken string
	Subject     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// ExpiresIn returns the token lifetime in whole seconds.
func (t Token) ExpiresIn() int64 {
	return int64(t.ExpiresAt.Sub(t.IssuedAt) / time.Second)
}

// Service verifies credentials and issues/validates signed tokens. All of its
// state is fixed at construction.
type Service struct {
	credentials *CredentialTable
	secret      []byte
	lifetime    time.Duration
	now         func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source, used for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a token service. An empty secret is an error; use
// GenerateSecret to obtain a random one.
func NewService(credentials *CredentialTable, secret []byte, lifetime time.Duration, opts ...Option) (*Service, error) {
	if credentials == nil {
		return nil, errors.New("credential table is required")
	}
	if len(secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	s := &Service{
		credentials: credentials,
		secret:      append([]byte(nil), secret...),
		lifetime:    lifetime,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewServiceFromConfig builds the credential table and secret from the security
// section. When no secret is configured a random one is generated; the
// returned bool reports that.
func NewServiceFromConfig(cfg config.SecurityConfig) (*Service, bool, error) {
	table, err := NewCredentialTableFromConfig(cfg.Users, bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}

	secret := []byte(cfg.JWTSecret)
	generated := false
	if len(secret) == 0 {
		if secret, err = GenerateSecret(); err != nil {
			return nil, false, err
		}
		generated = true
	}

	svc, err := NewService(table, secret, cfg.JWTExpiration)
	return svc, generated, err
}

// GenerateSecret returns 32 random bytes for HMAC signing.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return secret, nil
}

// Lifetime returns the fixed token lifetime.
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}

// Login checks the pair against the credential table and issues a token.
func (s *Service) Login(username, password string) (Token, error) {
	if username == "" || password == "" {
		return Token{}, ErrMissingCredentials
	}
	if !s.credentials.Verify(username, password) {
		return Token{}, ErrInvalidCredentials
	}
	return s.issue(username)
}

func (s *Service) issue(subject string) (Token, error) {
	// NumericDate has second precision, so keep the Go values aligned with it
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.lifetime)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return Token{
		AccessToken: signed,
		Subject:     subject,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	}, nil
}

// Validate verifies the token signature and expiry and returns its subject.
func (s *Service) Validate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidSignature
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidSignature
	}

	return claims.Subject, nil
}
