package repository

import (
	"github.com/yourusername/quizpin-api/internal/domain/entity"
)

// PlayerRepository определяет методы для работы с ростером сессии
type PlayerRepository interface {
	// Create добавляет игрока в ростер. Уникальность имени (без учёта регистра)
	// в рамках одной викторины гарантируется индексом БД; при коллизии
	// возвращается ErrDisplayNameTaken.
	Create(player *entity.Player) error
	GetByID(id string) (*entity.Player, error)
	// GetByQuizID возвращает ростер в порядке присоединения
	GetByQuizID(quizID string) ([]entity.Player, error)
	// IsMember проверяет принадлежность игрока к ростеру викторины
	IsMember(quizID, playerID string) (bool, error)
}
