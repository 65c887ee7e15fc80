package auth_test

import (
	"testing"
	"time"

	"referral-system/auth"
	"referral-system/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	cfg := &config.Config{TokenSecret: "secret"}
	token := signToken(t, "secret", jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"role":  "ADMIN",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	claims, err := auth.ValidateToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, "ADMIN", claims.Role)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	cfg := &config.Config{TokenSecret: "secret"}
	token := signToken(t, "other", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := auth.ValidateToken(cfg, token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	cfg := &config.Config{TokenSecret: "secret"}
	token := signToken(t, "secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := auth.ValidateToken(cfg, token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateTokenRequiresSubject(t *testing.T) {
	cfg := &config.Config{TokenSecret: "secret"}
	token := signToken(t, "secret", jwt.MapClaims{
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	_, err := auth.ValidateToken(cfg, token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateTokenChecksAudienceAndIssuer(t *testing.T) {
	cfg := &config.Config{
		TokenSecret:   "secret",
		TokenAudience: "referral-api",
		TokenIssuer:   "identity-provider",
	}

	good := signToken(t, "secret", jwt.MapClaims{
		"sub": "user-1",
		"aud": "referral-api",
		"iss": "identity-provider",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err := auth.ValidateToken(cfg, good)
	require.NoError(t, err)

	badAudience := signToken(t, "secret", jwt.MapClaims{
		"sub": "user-1",
		"aud": "other-api",
		"iss": "identity-provider",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = auth.ValidateToken(cfg, badAudience)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}
