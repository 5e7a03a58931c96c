package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenExpiry  = 24 * time.Hour
	minSecretLen = 16
	maxTokenName = 16
	tokenIssuer  = "projectile-sim"
)

var ErrInvalidToken = errors.New("invalid token")

// Auth issues and checks the tokens clients present on /ws. A nil *Auth accepts
// every connection.
type Auth struct {
	secret []byte
}

// NewAuth creates an Auth for secret. An empty secret disables auth and returns nil.
func NewAuth(secret string) (*Auth, error) {
	if secret == "" {
		return nil, nil
	}
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLen)
	}
	return &Auth{secret: []byte(secret)}, nil
}

// IssueToken signs a token naming a player
func (a *Auth) IssueToken(name string, ttl time.Duration) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxTokenName {
		return "", fmt.Errorf("name must be 1-%d characters", maxTokenName)
	}
	if ttl <= 0 {
		ttl = tokenExpiry
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateToken checks a token and returns the player name it carries
func (a *Auth) ValidateToken(tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
