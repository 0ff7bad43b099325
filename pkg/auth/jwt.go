package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TokenTypeAccess = "access"

type TokenClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues an HS256 token for subject valid for ttlMinutes.
func GenerateAccessToken(subject, jwtSecret, issuer string, ttlMinutes int) (string, time.Time, error) {
	if jwtSecret == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is not configured")
	}
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(ttlMinutes) * time.Minute)

	claims := TokenClaims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ParseToken parses and validates a JWT token
func ParseToken(tokenString, jwtSecret string) (*TokenClaims, error) {
	if jwtSecret == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("invalid token type: expected access token")
	}

	return claims, nil
}
