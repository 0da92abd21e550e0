package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
	"github.com/yourusername/quizpin-api/internal/domain/repository"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Save записывает ответ игрока условным INSERT: строка попадает в реестр,
// только если викторина на момент вставки live и её курсор равен currentOrder.
// Advance, закоммитившийся между проверкой предусловий в сервисе и этой
// вставкой, оставит RowsAffected == 0, и вызывающий получит ErrCursorMoved.
// Unique index idx_player_question гарантирует не более одного ответа на пару
// (player_id, question_id): из N параллельных одинаковых submit вставка
// пройдёт ровно у одного, остальные получат ErrAnswerExists.
func (r *AnswerRepo) Save(answer *entity.Answer, currentOrder int) error {
	result := r.db.Exec(`
		INSERT INTO answers
			(id, quiz_id, player_id, question_id, selected_option, is_correct, score, time_taken_ms, submitted_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (
			SELECT 1 FROM quizzes
			WHERE id = ? AND status = 'live' AND current_question = ?
		)`,
		answer.ID, answer.QuizID, answer.PlayerID, answer.QuestionID,
		answer.SelectedOption, answer.IsCorrect, answer.Score, answer.TimeTakenMs, answer.SubmittedAt,
		answer.QuizID, currentOrder)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("%w: player %s, question %s",
				repository.ErrAnswerExists, answer.PlayerID, answer.QuestionID)
		}
		return fmt.Errorf("failed to save answer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: quiz %s is not live at question %d",
			repository.ErrCursorMoved, answer.QuizID, currentOrder)
	}
	return nil
}

// GetByPlayer возвращает все ответы игрока в викторине в порядке отправки
func (r *AnswerRepo) GetByPlayer(quizID, playerID string) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("quiz_id = ? AND player_id = ?", quizID, playerID).
		Order("submitted_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// GetByQuizID возвращает все ответы викторины
func (r *AnswerRepo) GetByQuizID(quizID string) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("quiz_id = ?", quizID).
		Order("submitted_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// PlayerScore возвращает накопленный счёт игрока в викторине
func (r *AnswerRepo) PlayerScore(quizID, playerID string) (int, error) {
	var score int64
	err := r.db.Model(&entity.Answer{}).
		Where("quiz_id = ? AND player_id = ?", quizID, playerID).
		Select("COALESCE(SUM(score), 0)").
		Scan(&score).Error
	if err != nil {
		return 0, err
	}
	return int(score), nil
}
