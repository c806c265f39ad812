package services

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"fixly_backend/internal/auth"
	"fixly_backend/internal/dto"
	"fixly_backend/internal/logger"
	"fixly_backend/internal/models"
	"fixly_backend/internal/repositories"
	"fixly_backend/pkg/apperrors"
)

const refreshTokenTTL = 30 * 24 * time.Hour

type AuthService interface {
	Register(req *dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(req *dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(refreshToken string) (*dto.LoginResponse, error)
	Logout(refreshToken string) error
}

type authService struct {
	userRepo     repositories.UserRepository
	userPlanRepo repositories.UserPlanRepository
	refreshRepo  repositories.RefreshTokenRepository
	usageRepo    repositories.UsageRepository
}

func NewAuthService(
	userRepo repositories.UserRepository,
	userPlanRepo repositories.UserPlanRepository,
	refreshRepo repositories.RefreshTokenRepository,
	usageRepo repositories.UsageRepository,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		userPlanRepo: userPlanRepo,
		refreshRepo:  refreshRepo,
		usageRepo:    usageRepo,
	}
}

// Register создает пользователя и его бесплатный тариф.
// Каждый пользователь получает строку квоты сразу при регистрации,
// чтобы гейт откликов никогда не работал с отсутствующим тарифом.
func (s *authService) Register(req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}

	role := models.UserRole(req.Role)
	if role == models.UserRoleAdmin {
		// Админов создает только seed, через API регистрация запрещена.
		return nil, apperrors.ErrInvalidUserRole
	}

	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, apperrors.ErrEmailAlreadyExists
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.InternalError(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        req.Phone,
		City:         req.City,
		Role:         role,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, apperrors.InternalError(err)
	}

	userPlan := &models.UserPlan{
		UserID: user.ID,
		Type:   models.PlanTypeFree,
		Status: models.PlanStatusActive,
	}
	if err := s.userPlanRepo.Create(userPlan); err != nil {
		return nil, apperrors.InternalError(err)
	}

	go s.usageRepo.Track(user.ID, models.EventUserRegister, map[string]interface{}{
		"role": string(role),
	})

	logger.Info("user registered", "user_id", user.ID, "role", role)

	return s.issueTokens(user)
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Status == models.UserStatusSuspended {
		return nil, apperrors.ErrUserSuspended
	}

	go s.usageRepo.Track(user.ID, models.EventUserLogin, nil)

	return s.issueTokens(user)
}

func (s *authService) Refresh(refreshToken string) (*dto.LoginResponse, error) {
	stored, err := s.refreshRepo.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}

	if time.Now().After(stored.ExpiresAt) {
		// Просроченный токен удаляем сразу, не дожидаясь фоновой чистки.
		_ = s.refreshRepo.Delete(refreshToken)
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(stored.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	if user.Status == models.UserStatusSuspended {
		return nil, apperrors.ErrUserSuspended
	}

	// Ротация: старый refresh токен одноразовый.
	if err := s.refreshRepo.Delete(refreshToken); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return s.issueTokens(user)
}

func (s *authService) Logout(refreshToken string) error {
	if err := s.refreshRepo.Delete(refreshToken); err != nil && !errors.Is(err, repositories.ErrRefreshTokenNotFound) {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *authService) issueTokens(user *models.User) (*dto.LoginResponse, error) {
	accessToken, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	refreshToken := uuid.NewString()
	if err := s.refreshRepo.Create(&models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         dto.NewUserResponse(user),
	}, nil
}
