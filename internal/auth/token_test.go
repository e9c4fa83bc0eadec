package auth

import (
	"testing"
	"time"

	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, err := tm.GenerateToken(models.TokenTypeCollector, "auth-host")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeCollector, claims.Type)
	assert.Equal(t, "auth-host", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
}

func TestTokenManager_NoExpiry(t *testing.T) {
	tm := NewTokenManager(testSecret, 0)

	token, err := tm.GenerateToken(models.TokenTypeAdmin, "ops")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestTokenManager_RejectsUnknownType(t *testing.T) {
	_, err := NewTokenManager(testSecret, time.Hour).GenerateToken("access", "x")
	assert.Error(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)
	issued := time.Now().Add(-time.Hour)
	tm.now = func() time.Time { return issued }

	token, err := tm.GenerateToken(models.TokenTypeAdmin, "ops")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager(testSecret, time.Hour).GenerateToken(models.TokenTypeAdmin, "ops")
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret-of-decent-length!", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestTokenManager_RejectsForeignClaims(t *testing.T) {
	claims := &models.TokenClaims{
		Type: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := &models.TokenClaims{Type: models.TokenTypeAdmin, RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).ValidateToken(token)
	assert.Error(t, err)
}
