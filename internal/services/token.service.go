package services

import (
	"errors"
	"fmt"

	"fleetops/config"
	"fleetops/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService validates the session tokens issued at login. Both the HTTP
// middleware and the websocket auth handshake go through here.
type TokenService struct {
	config config.Config
	log    logger.Logger
}

func NewTokenService(config config.Config) *TokenService {
	return &TokenService{
		config: config,
		log:    logger.New("tokenService"),
	}
}

// ValidateToken parses and verifies a session token and returns the user ID
// it was issued to.
func (s *TokenService) ValidateToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.AuthTokenSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}
