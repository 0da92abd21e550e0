package repository

import (
	"time"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
)

// QuizFilters определяет фильтры для поиска викторин
type QuizFilters struct {
	Status   string // Фильтр по статусу (draft, live, completed)
	Category string // Фильтр по категории
	HostID   string // Фильтр по хосту
	Search   string // Поиск по названию/описанию
}

// QuizRepository определяет методы для работы с викторинами.
// Запись викторины — единственная точка сериализации для мутаций одной сессии:
// все Atomic*-методы реализуются условным UPDATE, чтобы конкурирующие вызовы
// не могли пройти одновременно.
type QuizRepository interface {
	// CreateWithQuestions атомарно создает викторину вместе с вопросами.
	// При коллизии игрового пина возвращает ErrPinTaken.
	CreateWithQuestions(quiz *entity.Quiz, questions []entity.Question) error
	GetByID(id string) (*entity.Quiz, error)
	GetWithQuestions(id string) (*entity.Quiz, error)
	// GetActiveByPin возвращает draft- или live-викторину с данным пином.
	// Завершённые викторины пин не удерживают.
	GetActiveByPin(pin string) (*entity.Quiz, error)
	// PinInUse проверяет, занят ли пин незавершённой викториной
	PinInUse(pin string) (bool, error)
	ListWithFilters(filters QuizFilters, limit, offset int) ([]entity.Quiz, int64, error) // Возвращает также total count
	// AtomicStart атомарно переводит draft → live, устанавливая курсор в 0 и started_at.
	// Возвращает ErrQuizNotDraft, если условный UPDATE не затронул строку.
	AtomicStart(quizID string, startedAt time.Time) error
	// AtomicAdvance атомарно сдвигает курсор fromIndex → fromIndex+1 у live-викторины.
	// CAS по (status, current_question); проигравший гонку получает ErrCursorMoved.
	AtomicAdvance(quizID string, fromIndex int) error
	// AtomicComplete атомарно переводит live → completed с тем же CAS по курсору
	AtomicComplete(quizID string, fromIndex int, endedAt time.Time) error
	// ListCompleted возвращает завершённые викторины (для глобального лидерборда)
	ListCompleted() ([]entity.Quiz, error)
	Delete(id string) error
}
