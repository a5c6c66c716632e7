package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-ops-api/internal/models"
	"github.com/noah-isme/academy-ops-api/internal/service"
)

func setupRouter(authSvc *service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/protected", JWT(authSvc), RequireRoles(models.RoleDirector, models.RoleManager), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func issueToken(t *testing.T, role models.EmployeeRole) string {
	t.Helper()
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		EmployeeID: "emp-1",
		AcademyID:  "a1",
		Account:    "staff",
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "emp-1",
			Issuer:    "academy-ops-api",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRBACDeniesTeacher(t *testing.T) {
	authSvc := newTestAuthService()
	r := setupRouter(authSvc)

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, models.RoleTeacher))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_PERMISSION")
}

func TestRBACAllowsManager(t *testing.T) {
	authSvc := newTestAuthService()
	r := setupRouter(authSvc)

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, models.RoleManager))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	authSvc := newTestAuthService()
	r := setupRouter(authSvc)

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func newTestAuthService() *service.AuthService {
	return service.NewAuthService(nil, nil, nil, service.AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "academy-ops-api",
	})
}
