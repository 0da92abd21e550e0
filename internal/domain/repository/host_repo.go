package repository

import (
	"github.com/yourusername/quizpin-api/internal/domain/entity"
)

// HostRepository определяет методы для работы с аккаунтами хостов
type HostRepository interface {
	Create(host *entity.Host) error
	GetByID(id string) (*entity.Host, error)
	GetByEmail(email string) (*entity.Host, error)
}
