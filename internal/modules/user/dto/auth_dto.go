package dto

import (
	"time"

	"anoa.com/studyhub/internal/entity"
	gamificationDto "anoa.com/studyhub/internal/modules/gamification/dto"
	commonDto "anoa.com/studyhub/pkg/dto"
)

type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileInput struct {
	Name  string `json:"name" binding:"omitempty,max=100"`
	Email string `json:"email" binding:"omitempty,email"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *entity.User `json:"user"`
	SearchToken string       `json:"search_token,omitempty"`
}

type ProfileResponse struct {
	ID           uint                                `json:"id"`
	Name         string                              `json:"name"`
	Email        string                              `json:"email"`
	IsAdmin      bool                                `json:"is_admin"`
	CreatedAt    time.Time                           `json:"created_at"`
	Gamification *gamificationDto.GamificationStatus `json:"gamification"`
}

type UserListQuery = commonDto.PageQuery

type PaginatedUsersResponse struct {
	Data []entity.User            `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
