package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/antibyte/basic64/pkg/configuration"
	"github.com/antibyte/basic64/pkg/logger"
)

// Claims is the JWT payload carried by terminal connections.
type Claims struct {
	Username string `json:"username"`
	Guest    bool   `json:"guest"`
	jwt.RegisteredClaims
}

// TokenService issues and validates session tokens.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenService reads the signing secret from the [Session] configuration
// section. Without a configured secret a random one is generated, which
// invalidates outstanding tokens on restart.
func NewTokenService() *TokenService {
	secret := configuration.GetString("Session", "jwt_secret", "")
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err == nil {
			secret = hex.EncodeToString(buf)
		}
		logger.AuthWarn("no jwt_secret configured, using an ephemeral secret")
	}
	return &TokenService{
		secret:   []byte(secret),
		lifetime: configuration.GetDuration("Session", "token_lifetime", 24*time.Hour),
	}
}

// Generate issues a signed token for a user or guest session.
func (s *TokenService) Generate(username string, guest bool) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		Guest:    guest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
