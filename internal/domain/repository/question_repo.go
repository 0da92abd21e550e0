package repository

import (
	"github.com/yourusername/quizpin-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	// Create добавляет вопрос в хвост викторины (order = текущему количеству)
	// и атомарно увеличивает total_questions.
	Create(question *entity.Question) error
	GetByID(id string) (*entity.Question, error)
	// GetByQuizID возвращает вопросы викторины, отсортированные по order
	GetByQuizID(quizID string) ([]entity.Question, error)
	// GetByQuizAndOrder возвращает вопрос на заданной позиции курсора
	GetByQuizAndOrder(quizID string, order int) (*entity.Question, error)
	Update(question *entity.Question) error
	// DeleteWithReorder удаляет вопрос и в той же транзакции уплотняет order
	// оставшихся вопросов (плотная последовательность 0..N-1) и декрементирует
	// total_questions. O(n) по числу хвостовых вопросов.
	DeleteWithReorder(quizID, questionID string) error
	CountByQuizID(quizID string) (int64, error)
}
