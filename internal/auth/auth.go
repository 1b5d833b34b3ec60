// Package auth validates the bearer tokens issued by the identity provider
// and turns their claims into an access.Identity.
package auth

import (
	"errors"
	"time"

	"gymhub/internal/access"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtIssuer   = "gymhub-identity"
	jwtAudience = "gymhub-api"

	AccessTokenTTL = 15 * time.Minute

	tokenTypeAccess = "access"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidRole      = errors.New("invalid role claim")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
)

type JWTClaims struct {
	UserID    string      `json:"user_id"`
	Role      access.Role `json:"role"`
	GymID     string      `json:"gym_id,omitempty"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) Identity() access.Identity {
	return access.Identity{UserID: c.UserID, Role: c.Role, GymID: c.GymID}
}

// GenerateAccessToken signs an access token for identity. The API never
// issues tokens itself; this exists for tooling and tests.
func GenerateAccessToken(identity access.Identity, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}

	now := time.Now()
	claims := &JWTClaims{
		UserID:    identity.UserID,
		Role:      identity.Role,
		GymID:     identity.GymID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   identity.UserID,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if !claims.Role.Valid() {
		return nil, ErrInvalidRole
	}

	return claims, nil
}
