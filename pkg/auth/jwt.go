// Package auth turns bearer tokens into caller identities.
package auth

import (
	"errors"
	"fmt"
	"time"

	"gym-class-booking/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

func (s *TokenService) Issue(userID string, roles []models.Role, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}

	now := s.now()
	claims := Claims{
		Roles: names,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates the token and returns the identity it carries.
func (s *TokenService) Verify(tokenStr string) (*models.Identity, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	identity := &models.Identity{UserID: claims.Subject}
	for _, r := range claims.Roles {
		identity.Roles = append(identity.Roles, models.Role(r))
	}
	return identity, nil
}
