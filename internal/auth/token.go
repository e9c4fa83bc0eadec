package auth

import (
	"fmt"
	"time"

	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "loginlog"

// TokenManager issues and validates the bearer tokens for the admin and
// event endpoints
type TokenManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a new TokenManager. An expiry of zero issues
// tokens that never expire.
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// GenerateToken signs a token of the given type for subject
func (tm *TokenManager) GenerateToken(tokenType, subject string) (string, error) {
	if tokenType != models.TokenTypeAdmin && tokenType != models.TokenTypeCollector {
		return "", fmt.Errorf("unknown token type %q", tokenType)
	}

	now := tm.now()
	claims := &models.TokenClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if tm.expiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(tm.expiry))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypeAdmin && claims.Type != models.TokenTypeCollector {
		return nil, fmt.Errorf("invalid token: unknown type %q", claims.Type)
	}

	return claims, nil
}
