package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/quizpin-api/internal/domain/entity"
	"github.com/yourusername/quizpin-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// CreateWithQuestions атомарно создает викторину вместе с вопросами.
// Partial unique index idx_quiz_active_pin гарантирует уникальность пина
// среди незавершённых викторин; 23505 транслируется в ErrPinTaken.
func (r *QuizRepo) CreateWithQuestions(quiz *entity.Quiz, questions []entity.Question) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quiz).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: pin %s", repository.ErrPinTaken, quiz.GamePin)
			}
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return fmt.Errorf("failed to create questions: %w", err)
			}
		}
		return nil
	})
}

// GetByID возвращает викторину по ID
func (r *QuizRepo) GetByID(id string) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.First(&quiz, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions возвращает викторину вместе с вопросами в порядке order
func (r *QuizRepo) GetWithQuestions(id string) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("question_order ASC")
	}).First(&quiz, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetActiveByPin возвращает draft- или live-викторину с данным пином
func (r *QuizRepo) GetActiveByPin(pin string) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.
		Where("game_pin = ? AND status IN ?", pin, []string{entity.QuizStatusDraft, entity.QuizStatusLive}).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// PinInUse проверяет, занят ли пин незавершённой викториной
func (r *QuizRepo) PinInUse(pin string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Quiz{}).
		Where("game_pin = ? AND status <> ?", pin, entity.QuizStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListWithFilters возвращает список викторин с фильтрами и total count
func (r *QuizRepo) ListWithFilters(filters repository.QuizFilters, limit, offset int) ([]entity.Quiz, int64, error) {
	var quizzes []entity.Quiz
	var total int64

	query := r.db.Model(&entity.Quiz{})

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.HostID != "" {
		query = query.Where("host_id = ?", filters.HostID)
	}
	if filters.Search != "" {
		search := "%" + filters.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", search, search)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("created_at DESC").Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

// AtomicStart атомарно переводит draft → live.
// - RowsAffected == 0 → викторина не draft (или не существует)
// - Другая DB ошибка → возвращается как есть
func (r *QuizRepo) AtomicStart(quizID string, startedAt time.Time) error {
	result := r.db.Model(&entity.Quiz{}).
		Where("id = ? AND status = ?", quizID, entity.QuizStatusDraft).
		Updates(map[string]interface{}{
			"status":           entity.QuizStatusLive,
			"current_question": 0,
			"started_at":       startedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("start quiz %s failed: %w", quizID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: quiz %s", repository.ErrQuizNotDraft, quizID)
	}
	return nil
}

// AtomicAdvance атомарно сдвигает курсор fromIndex → fromIndex+1.
// CAS по (status, current_question): из двух параллельных advance пройдёт
// ровно один, второй получит ErrCursorMoved.
func (r *QuizRepo) AtomicAdvance(quizID string, fromIndex int) error {
	result := r.db.Model(&entity.Quiz{}).
		Where("id = ? AND status = ? AND current_question = ?", quizID, entity.QuizStatusLive, fromIndex).
		Update("current_question", fromIndex+1)

	if result.Error != nil {
		return fmt.Errorf("advance quiz %s failed: %w", quizID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: quiz %s, from index %d", repository.ErrCursorMoved, quizID, fromIndex)
	}
	return nil
}

// AtomicComplete атомарно переводит live → completed с тем же CAS по курсору
func (r *QuizRepo) AtomicComplete(quizID string, fromIndex int, endedAt time.Time) error {
	result := r.db.Model(&entity.Quiz{}).
		Where("id = ? AND status = ? AND current_question = ?", quizID, entity.QuizStatusLive, fromIndex).
		Updates(map[string]interface{}{
			"status":   entity.QuizStatusCompleted,
			"ended_at": endedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("complete quiz %s failed: %w", quizID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: quiz %s, from index %d", repository.ErrCursorMoved, quizID, fromIndex)
	}
	return nil
}

// ListCompleted возвращает завершённые викторины
func (r *QuizRepo) ListCompleted() ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.Where("status = ?", entity.QuizStatusCompleted).
		Order("ended_at DESC").
		Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

// Delete удаляет викторину; вопросы, игроки и ответы удаляются каскадно
func (r *QuizRepo) Delete(id string) error {
	return r.db.Delete(&entity.Quiz{}, "id = ?", id).Error
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
