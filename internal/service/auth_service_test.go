package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academy-ops-api/internal/models"
	appErrors "github.com/noah-isme/academy-ops-api/pkg/errors"
)

type stubAuthEmployeeRepo struct {
	employees map[string]models.Employee
}

func (s *stubAuthEmployeeRepo) FindByAccount(ctx context.Context, account string) (*models.Employee, error) {
	if e, ok := s.employees[account]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthService(t *testing.T) (*AuthService, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &stubAuthEmployeeRepo{employees: map[string]models.Employee{
		"manager": {ID: "emp-1", AcademyID: "a1", Account: "manager", PasswordHash: string(hash), Role: models.RoleManager},
	}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "academy-ops-api",
	})
	return svc, "secret-pass"
}

func TestAuthServiceLogin(t *testing.T) {
	svc, password := newAuthService(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Account: "manager", Password: password})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "emp-1", res.Employee.EmployeeID)
	assert.Equal(t, models.RoleManager, res.Employee.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Account: "manager", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownAccount(t *testing.T) {
	svc, password := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Account: "nobody", Password: password})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc, password := newAuthService(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Account: "manager", Password: password})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.EmployeeID)
	assert.Equal(t, "a1", claims.AcademyID)
	assert.Equal(t, models.RoleManager, claims.Role)

	principal := claims.Principal()
	assert.Equal(t, "manager", principal.Account)
}

func TestAuthServiceValidateTokenTampered(t *testing.T) {
	svc, password := newAuthService(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Account: "manager", Password: password})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.AccessToken + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
