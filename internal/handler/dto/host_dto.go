package dto

import (
	"time"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
)

// HostResponse представляет аккаунт хоста в формате для ответа клиенту
type HostResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthResponse представляет результат регистрации или входа
type AuthResponse struct {
	Host  HostResponse `json:"host"`
	Token string       `json:"token"`
}

// NewHostResponse создает DTO для хоста
func NewHostResponse(host *entity.Host) HostResponse {
	return HostResponse{
		ID:          host.ID,
		Email:       host.Email,
		DisplayName: host.DisplayName,
		CreatedAt:   host.CreatedAt,
	}
}

// NewAuthResponse создает DTO с хостом и токеном доступа
func NewAuthResponse(host *entity.Host, token string) *AuthResponse {
	return &AuthResponse{
		Host:  NewHostResponse(host),
		Token: token,
	}
}
