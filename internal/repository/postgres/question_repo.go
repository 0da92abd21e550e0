package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create добавляет вопрос в хвост викторины и атомарно увеличивает total_questions.
// Позиция order назначается внутри транзакции по фактическому количеству строк,
// чтобы выполнялся инвариант плотной последовательности 0..N-1.
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.Question{}).
			Where("quiz_id = ?", question.QuizID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count questions: %w", err)
		}

		question.Order = int(count)
		if err := tx.Create(question).Error; err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}

		return tx.Model(&entity.Quiz{}).
			Where("id = ?", question.QuizID).
			Update("total_questions", gorm.Expr("total_questions + 1")).
			Error
	})
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id string) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByQuizID возвращает вопросы викторины в порядке order
func (r *QuestionRepo) GetByQuizID(quizID string) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("quiz_id = ?", quizID).
		Order("question_order ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetByQuizAndOrder возвращает вопрос на заданной позиции курсора
func (r *QuestionRepo) GetByQuizAndOrder(quizID string, order int) (*entity.Question, error) {
	var question entity.Question
	err := r.db.Where("quiz_id = ? AND question_order = ?", quizID, order).
		First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// Update обновляет вопрос
func (r *QuestionRepo) Update(question *entity.Question) error {
	return r.db.Save(question).Error
}

// DeleteWithReorder удаляет вопрос и уплотняет order оставшихся вопросов.
// Сдвиг хвоста — линейный UPDATE по вопросам с question_order > удалённого;
// при десятках вопросов на викторину это не горячий путь.
func (r *QuestionRepo) DeleteWithReorder(quizID, questionID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var question entity.Question
		if err := tx.Where("id = ? AND quiz_id = ?", questionID, quizID).
			First(&question).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		if err := tx.Delete(&question).Error; err != nil {
			return fmt.Errorf("failed to delete question: %w", err)
		}

		// Уплотняем хвост: все вопросы правее удалённого сдвигаются на -1
		if err := tx.Model(&entity.Question{}).
			Where("quiz_id = ? AND question_order > ?", quizID, question.Order).
			Update("question_order", gorm.Expr("question_order - 1")).
			Error; err != nil {
			return fmt.Errorf("failed to compact question order: %w", err)
		}

		return tx.Model(&entity.Quiz{}).
			Where("id = ?", quizID).
			Update("total_questions", gorm.Expr("total_questions - 1")).
			Error
	})
}

// CountByQuizID возвращает количество вопросов викторины
func (r *QuestionRepo) CountByQuizID(quizID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}
