package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixly_backend/internal/config"
	"fixly_backend/internal/dto"
	"fixly_backend/internal/models"
	"fixly_backend/pkg/apperrors"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-jwt-secret"
	cfg.JWT.TTL = 60
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })
}

type authFixture struct {
	service   AuthService
	users     *fakeUserRepo
	userPlans *fakeUserPlanRepo
	tokens    *fakeRefreshTokenRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	setTestConfig(t)

	users := newFakeUserRepo()
	userPlans := newFakeUserPlanRepo()
	tokens := newFakeRefreshTokenRepo()

	service := NewAuthService(users, userPlans, tokens, newFakeUsageRepo())
	return &authFixture{service: service, users: users, userPlans: userPlans, tokens: tokens}
}

func registerFixer(t *testing.T, fx *authFixture) *dto.LoginResponse {
	t.Helper()
	resp, err := fx.service.Register(&dto.RegisterRequest{
		Email:    "fixer@example.com",
		Password: "secret123",
		Name:     "Фиксер",
		City:     "Алматы",
		Role:     models.UserRoleFixer,
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterCreatesFreePlan(t *testing.T) {
	fx := newAuthFixture(t)

	resp := registerFixer(t, fx)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.UserRoleFixer, resp.User.Role)

	plan, err := fx.userPlans.FindByUserID(resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanTypeFree, plan.Type)
	assert.Equal(t, 0, plan.CreditsUsed)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t)
	registerFixer(t, fx)

	_, err := fx.service.Register(&dto.RegisterRequest{
		Email:    "fixer@example.com",
		Password: "secret123",
		Name:     "Другой",
		Role:     models.UserRoleHirer,
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestRegisterAdminRoleForbidden(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Register(&dto.RegisterRequest{
		Email:    "admin@example.com",
		Password: "secret123",
		Name:     "Админ",
		Role:     models.UserRoleAdmin,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidUserRole)
}

func TestRegisterWeakPassword(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Register(&dto.RegisterRequest{
		Email:    "fixer@example.com",
		Password: "123",
		Name:     "Фиксер",
		Role:     models.UserRoleFixer,
	})
	assert.ErrorIs(t, err, apperrors.ErrWeakPassword)
}

func TestLogin(t *testing.T) {
	fx := newAuthFixture(t)
	registerFixer(t, fx)

	resp, err := fx.service.Login(&dto.LoginRequest{
		Email:    "fixer@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = fx.service.Login(&dto.LoginRequest{
		Email:    "fixer@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = fx.service.Login(&dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginSuspendedUser(t *testing.T) {
	fx := newAuthFixture(t)
	resp := registerFixer(t, fx)

	require.NoError(t, fx.users.UpdateStatus(resp.User.ID, models.UserStatusSuspended))

	_, err := fx.service.Login(&dto.LoginRequest{
		Email:    "fixer@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, apperrors.ErrUserSuspended)
}

func TestRefreshRotatesToken(t *testing.T) {
	fx := newAuthFixture(t)
	resp := registerFixer(t, fx)

	refreshed, err := fx.service.Refresh(resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	// Старый токен одноразовый.
	_, err = fx.service.Refresh(resp.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	fx := newAuthFixture(t)
	resp := registerFixer(t, fx)

	require.NoError(t, fx.service.Logout(resp.RefreshToken))

	_, err := fx.service.Refresh(resp.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	// Logout с неизвестным токеном не ошибка.
	assert.NoError(t, fx.service.Logout("unknown"))
}
