package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
	"github.com/yourusername/quizpin-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
	"github.com/yourusername/quizpin-api/internal/websocket"
)

// EventEmitter рассылает события живой сессии подписчикам викторины.
// Реализуется websocket.Manager.
type EventEmitter interface {
	BroadcastEventToQuiz(quizID string, eventType string, data interface{}) error
}

// AdvanceResult описывает исход продвижения курсора
type AdvanceResult struct {
	// Completed устанавливается, когда вопросы кончились и викторина завершена
	Completed bool `json:"completed"`

	// QuestionIndex содержит индекс нового текущего вопроса (для Completed не заполняется)
	QuestionIndex int `json:"question_index"`

	// Question содержит новый текущий вопрос без правильного варианта
	Question *entity.Question `json:"question,omitempty"`

	// Leaderboard содержит финальный снимок при завершении
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
}

// SessionService управляет жизненным циклом живой сессии: draft → live → completed.
// Все переходы выполняются условными UPDATE в БД, так что конкурирующие вызовы
// не могут пройти одновременно; здесь исход условного обновления переводится
// в доменную ошибку.
type SessionService struct {
	quizRepo           repository.QuizRepository
	questionRepo       repository.QuestionRepository
	leaderboardService *LeaderboardService
	quizService        *QuizService
	emitter            EventEmitter
}

// NewSessionService создает новый сервис сессий
func NewSessionService(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	leaderboardService *LeaderboardService,
	quizService *QuizService,
	emitter EventEmitter,
) *SessionService {
	return &SessionService{
		quizRepo:           quizRepo,
		questionRepo:       questionRepo,
		leaderboardService: leaderboardService,
		quizService:        quizService,
		emitter:            emitter,
	}
}

// Start переводит draft-викторину в live и устанавливает курсор на первый вопрос
func (s *SessionService) Start(quizID, actorID string) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsHost(actorID) {
		return nil, fmt.Errorf("only the host can start the session: %w", apperrors.ErrForbidden)
	}
	if quiz.TotalQuestions == 0 {
		return nil, fmt.Errorf("cannot start a quiz without questions: %w", apperrors.ErrInvalidState)
	}

	startedAt := time.Now()
	if err := s.quizRepo.AtomicStart(quizID, startedAt); err != nil {
		if errors.Is(err, repository.ErrQuizNotDraft) {
			// Условный UPDATE не прошёл: выясняем фактический статус
			current, readErr := s.quizRepo.GetByID(quizID)
			if readErr != nil {
				return nil, readErr
			}
			return nil, fmt.Errorf("quiz is %s, only a draft quiz can be started: %w",
				current.Status, apperrors.ErrInvalidState)
		}
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	firstIndex := 0
	quiz.Status = entity.QuizStatusLive
	quiz.CurrentQuestion = &firstIndex
	quiz.StartedAt = &startedAt

	s.quizService.InvalidatePinCache(quiz.GamePin)

	question, err := s.questionRepo.GetByQuizAndOrder(quizID, firstIndex)
	if err != nil {
		log.Printf("[SessionService] Не удалось получить первый вопрос викторины ID=%s: %v", quizID, err)
	}

	s.emit(quizID, websocket.SESSION_STARTED, map[string]interface{}{
		"quiz_id":         quiz.ID,
		"question_index":  firstIndex,
		"question":        question,
		"total_questions": quiz.TotalQuestions,
		"started_at":      startedAt,
	})

	log.Printf("[SessionService] Сессия викторины ID=%s запущена хостом %s", quizID, actorID)
	return quiz, nil
}

// Advance сдвигает курсор live-викторины на следующий вопрос.
// Когда вопросы закончились, викторина завершается и фиксируется
// финальный снимок лидерборда.
func (s *SessionService) Advance(quizID, actorID string) (*AdvanceResult, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsHost(actorID) {
		return nil, fmt.Errorf("only the host can advance the session: %w", apperrors.ErrForbidden)
	}
	if !quiz.IsLive() {
		return nil, fmt.Errorf("quiz is %s, only a live quiz can be advanced: %w",
			quiz.Status, apperrors.ErrInvalidState)
	}

	fromIndex := quiz.CurrentIndex()
	if fromIndex < 0 {
		return nil, fmt.Errorf("live quiz has no cursor: %w", apperrors.ErrInvalidState)
	}
	nextIndex := fromIndex + 1

	if nextIndex >= quiz.TotalQuestions {
		return s.complete(quiz, fromIndex)
	}

	if err := s.quizRepo.AtomicAdvance(quizID, fromIndex); err != nil {
		if errors.Is(err, repository.ErrCursorMoved) {
			return nil, lostAdvanceRace(quizID)
		}
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}

	question, err := s.questionRepo.GetByQuizAndOrder(quizID, nextIndex)
	if err != nil {
		log.Printf("[SessionService] Не удалось получить вопрос %d викторины ID=%s: %v", nextIndex, quizID, err)
	}

	s.emit(quizID, websocket.QUESTION_ADVANCED, map[string]interface{}{
		"quiz_id":         quiz.ID,
		"question_index":  nextIndex,
		"question":        question,
		"total_questions": quiz.TotalQuestions,
	})

	log.Printf("[SessionService] Викторина ID=%s: курсор %d → %d", quizID, fromIndex, nextIndex)
	return &AdvanceResult{QuestionIndex: nextIndex, Question: question}, nil
}

// complete завершает викторину тем же CAS по курсору и замораживает лидерборд
func (s *SessionService) complete(quiz *entity.Quiz, fromIndex int) (*AdvanceResult, error) {
	endedAt := time.Now()
	if err := s.quizRepo.AtomicComplete(quiz.ID, fromIndex, endedAt); err != nil {
		if errors.Is(err, repository.ErrCursorMoved) {
			return nil, lostAdvanceRace(quiz.ID)
		}
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	s.quizService.InvalidatePinCache(quiz.GamePin)

	leaderboard, err := s.leaderboardService.FreezeSnapshot(quiz.ID)
	if err != nil {
		// Завершение уже зафиксировано в БД, снимок можно пересчитать при чтении
		log.Printf("[SessionService] Не удалось заморозить лидерборд викторины ID=%s: %v", quiz.ID, err)
	}

	s.emit(quiz.ID, websocket.SESSION_COMPLETED, map[string]interface{}{
		"quiz_id":     quiz.ID,
		"ended_at":    endedAt,
		"leaderboard": leaderboard,
	})

	log.Printf("[SessionService] Сессия викторины ID=%s завершена после вопроса %d", quiz.ID, fromIndex)
	return &AdvanceResult{Completed: true, Leaderboard: leaderboard}, nil
}

// lostAdvanceRace переводит проигранный CAS в доменную ошибку. Статус викторины
// проверен до условного UPDATE, поэтому несовпадение курсора означает ровно одно:
// конкурирующий advance успел изменить викторину между чтением и UPDATE. Это
// Conflict и тогда, когда победитель уже завершил сессию последним вопросом.
func lostAdvanceRace(quizID string) error {
	return fmt.Errorf("a concurrent advance of quiz %s won the race: %w", quizID, apperrors.ErrConflict)
}

// emit отправляет событие подписчикам викторины, не прерывая основную операцию
func (s *SessionService) emit(quizID, eventType string, data interface{}) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.BroadcastEventToQuiz(quizID, eventType, data); err != nil {
		log.Printf("[SessionService] Не удалось разослать событие %s викторины ID=%s: %v", eventType, quizID, err)
	}
}
