package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/campushub/internal/models"
)

func TestJWTServiceRoundTrip(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "campushub"})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken("user-1", models.RoleStudent)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleStudent, claims.Role)
	require.Equal(t, "campushub", claims.Issuer)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	issuer, err := NewJWTService(JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Hour,
		Clock:          func() time.Time { return issued },
	})
	require.NoError(t, err)

	token, err := issuer.GenerateAccessToken("user-1", models.RoleAdmin)
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTServiceRejectsWrongSecret(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret-a"})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken("user-1", models.RoleStudent)
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: "secret-b"})
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTServiceRejectsUnknownRole(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	_, err = svc.GenerateAccessToken("user-1", models.Role("teacher"))
	require.Error(t, err)
}
