package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestConfig() models.JWTConfig {
	return models.JWTConfig{
		Secret:     "test-secret-key-for-jwt-signing",
		Expiration: 60,
		Issuer:     "geoquery-test",
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := getTestConfig()

	token, expiresAt, err := GenerateToken("dashboard-1", cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), expiresAt, 5)

	claims, err := ValidateToken(token, cfg.Secret)
	require.NoError(t, err)
	assert.Equal(t, "dashboard-1", claims.ClientID)
	assert.Equal(t, "dashboard-1", claims.Subject)
	assert.Equal(t, "geoquery-test", claims.Issuer)
}

func TestValidateToken_Invalid(t *testing.T) {
	cfg := getTestConfig()
	valid, _, err := GenerateToken("dashboard-1", cfg)
	require.NoError(t, err)

	expiredCfg := cfg
	expiredCfg.Expiration = -5
	expired, _, err := GenerateToken("dashboard-1", expiredCfg)
	require.NoError(t, err)

	noClient, _, err := GenerateToken("", cfg)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ClientID: "x"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "wrong secret", token: valid, secret: "other-secret"},
		{name: "expired", token: expired, secret: cfg.Secret},
		{name: "missing client id", token: noClient, secret: cfg.Secret},
		{name: "unsigned", token: unsigned, secret: cfg.Secret},
		{name: "garbage", token: "not.a.token", secret: cfg.Secret},
		{name: "empty", token: "", secret: cfg.Secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
