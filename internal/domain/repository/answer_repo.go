package repository

import (
	"github.com/yourusername/quizpin-api/internal/domain/entity"
)

// AnswerRepository определяет методы для работы с реестром ответов.
// Реестр append-only: записи не изменяются и не удаляются, кроме каскадного
// удаления вместе с вопросом draft-викторины.
type AnswerRepository interface {
	// Save записывает ответ одним условным INSERT: строка вставляется, только
	// если викторина всё ещё live и её курсор равен currentOrder. Если курсор
	// сдвинулся между проверкой предусловий и вставкой, возвращается
	// ErrCursorMoved. Уникальность пары (player_id, question_id)
	// гарантируется индексом БД; при повторе возвращается ErrAnswerExists.
	Save(answer *entity.Answer, currentOrder int) error
	GetByPlayer(quizID, playerID string) ([]entity.Answer, error)
	GetByQuizID(quizID string) ([]entity.Answer, error)
	// PlayerScore возвращает накопленный счёт игрока в викторине
	PlayerScore(quizID, playerID string) (int, error)
}
