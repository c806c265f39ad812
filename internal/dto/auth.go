package dto

import "fixly_backend/internal/models"

type RegisterRequest struct {
	Email    string          `json:"email" binding:"required" validate:"required,email"`
	Password string          `json:"password" binding:"required" validate:"required,min=6"`
	Name     string          `json:"name" binding:"required" validate:"required"`
	Phone    string          `json:"phone"`
	City     string          `json:"city"`
	Role     models.UserRole `json:"role" binding:"required" validate:"required,is-user-role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" validate:"required"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Phone *string `json:"phone"`
	City  *string `json:"city"`
}

type UserResponse struct {
	ID    string          `json:"id"`
	Email string          `json:"email"`
	Name  string          `json:"name"`
	City  string          `json:"city,omitempty"`
	Role  models.UserRole `json:"role"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		City:  u.City,
		Role:  u.Role,
	}
}
