package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
)

// HostRepo реализует repository.HostRepository
type HostRepo struct {
	db *gorm.DB
}

// NewHostRepo создает новый репозиторий хостов
func NewHostRepo(db *gorm.DB) *HostRepo {
	return &HostRepo{db: db}
}

// Create создает аккаунт хоста
func (r *HostRepo) Create(host *entity.Host) error {
	if err := r.db.Create(host).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create host: %w", err)
	}
	return nil
}

// GetByID возвращает хоста по ID
func (r *HostRepo) GetByID(id string) (*entity.Host, error) {
	var host entity.Host
	err := r.db.First(&host, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &host, nil
}

// GetByEmail возвращает хоста по email
func (r *HostRepo) GetByEmail(email string) (*entity.Host, error) {
	var host entity.Host
	err := r.db.First(&host, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &host, nil
}
