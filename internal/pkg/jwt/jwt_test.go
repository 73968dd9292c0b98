package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService("test-secret", "15m")
	require.NoError(t, err)
	return svc.(*JWTService)
}

func TestNewJWTService_InvalidDuration(t *testing.T) {
	_, err := NewJWTService("secret", "fifteen minutes")
	assert.Error(t, err)
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestService(t)

	token, expiresAt, err := svc.GenerateAccessToken(Claims{
		UserID:     "user-1",
		EmployeeID: "emp-1",
		CompanyID:  "company-1",
	})
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, claims["type"])
	assert.Equal(t, Claims{UserID: "user-1", EmployeeID: "emp-1", CompanyID: "company-1"}, ClaimsFromMap(claims))
}

func TestClaimsFromMap_MissingEmployee(t *testing.T) {
	claims := ClaimsFromMap(map[string]interface{}{"user_id": "user-1", "employee_id": nil})
	assert.Equal(t, "user-1", claims.UserID)
	assert.Empty(t, claims.EmployeeID)
}

func TestSSEToken(t *testing.T) {
	svc := newTestService(t)

	token, expiresIn, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc := newTestService(t)

	access, _, err := svc.GenerateAccessToken(Claims{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateSSEToken_Expired(t *testing.T) {
	svc := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestValidateSSEToken_WrongSecret(t *testing.T) {
	other, err := NewJWTService("another-secret", "15m")
	require.NoError(t, err)
	token, _, err := other.GenerateSSEToken("user-1")
	require.NoError(t, err)

	_, err = newTestService(t).ValidateSSEToken(token)
	assert.Error(t, err)
}
