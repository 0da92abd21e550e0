package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
	"github.com/yourusername/quizpin-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
	"github.com/yourusername/quizpin-api/pkg/auth"
)

// AuthService управляет аккаунтами хостов и выдачей токенов
type AuthService struct {
	hostRepo   repository.HostRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(hostRepo repository.HostRepository, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		hostRepo:   hostRepo,
		jwtService: jwtService,
	}
}

// Register регистрирует нового хоста и возвращает токен доступа
func (s *AuthService) Register(email, displayName, password string) (*entity.Host, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("a valid email is required: %w", apperrors.ErrValidation)
	}
	if displayName == "" {
		return nil, "", fmt.Errorf("display name is required: %w", apperrors.ErrValidation)
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("password must be at least 8 characters: %w", apperrors.ErrValidation)
	}

	host := &entity.Host{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		Password:    password, // Хешируется в BeforeSave
	}
	if err := s.hostRepo.Create(host); err != nil {
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(host)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	log.Printf("[AuthService] Зарегистрирован хост %s (ID=%s)", email, host.ID)
	return host, token, nil
}

// Login проверяет учётные данные хоста и возвращает токен доступа
func (s *AuthService) Login(email, password string) (*entity.Host, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	host, err := s.hostRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Не раскрываем, существует ли аккаунт
			return nil, "", fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
		}
		return nil, "", err
	}

	if !host.CheckPassword(password) {
		log.Printf("[AuthService] Неверный пароль для хоста %s", email)
		return nil, "", fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
	}

	token, err := s.jwtService.GenerateToken(host)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return host, token, nil
}

// GetHostByID возвращает аккаунт хоста
func (s *AuthService) GetHostByID(id string) (*entity.Host, error) {
	return s.hostRepo.GetByID(id)
}
