package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
	"github.com/yourusername/quizpin-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
)

// PlayerRepo реализует repository.PlayerRepository
type PlayerRepo struct {
	db *gorm.DB
}

// NewPlayerRepo создает новый репозиторий игроков
func NewPlayerRepo(db *gorm.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// Create добавляет игрока в ростер.
// Unique index idx_player_name_per_quiz (quiz_id, lower(display_name))
// гарантирует уникальность имени без учёта регистра; проверка и вставка
// неразделимы, гонка двух одинаковых join невозможна.
func (r *PlayerRepo) Create(player *entity.Player) error {
	if err := r.db.Create(player).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", repository.ErrDisplayNameTaken, player.DisplayName)
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// GetByID возвращает игрока по ID
func (r *PlayerRepo) GetByID(id string) (*entity.Player, error) {
	var player entity.Player
	err := r.db.First(&player, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &player, nil
}

// GetByQuizID возвращает ростер в порядке присоединения
func (r *PlayerRepo) GetByQuizID(quizID string) ([]entity.Player, error) {
	var players []entity.Player
	err := r.db.Where("quiz_id = ?", quizID).
		Order("joined_at ASC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

// IsMember проверяет принадлежность игрока к ростеру викторины
func (r *PlayerRepo) IsMember(quizID, playerID string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Player{}).
		Where("quiz_id = ? AND id = ?", quizID, playerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
