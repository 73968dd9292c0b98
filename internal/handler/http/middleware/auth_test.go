package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
)

func protectedRouter(t *testing.T) (http.Handler, jwt.Service) {
	t.Helper()
	svc, err := jwt.NewJWTService("test-secret", "15m")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(svc.JWTAuth()))
	r.Use(AuthRequired(svc.JWTAuth()))
	r.With(RequireEmployee).Get("/me", func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		_, _ = w.Write([]byte(claims.EmployeeID))
	})
	return r, svc
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	h, svc := protectedRouter(t)

	token, _, err := svc.GenerateAccessToken(jwt.Claims{UserID: "user-1", EmployeeID: "emp-1", CompanyID: "company-1"})
	require.NoError(t, err)

	rec := serve(h, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "emp-1", rec.Body.String())
}

func TestAuthRequired_MissingToken(t *testing.T) {
	h, _ := protectedRouter(t)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
}

func TestAuthRequired_SSETokenRejected(t *testing.T) {
	h, svc := protectedRouter(t)

	token, _, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, token).Code)
}

func TestRequireEmployee_NoEmployeeClaim(t *testing.T) {
	h, svc := protectedRouter(t)

	token, _, err := svc.GenerateAccessToken(jwt.Claims{UserID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(h, token).Code)
}
