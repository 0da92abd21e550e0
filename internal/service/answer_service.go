package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
	"github.com/yourusername/quizpin-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
	"github.com/yourusername/quizpin-api/internal/websocket"
)

// SubmitResult содержит то, что игрок узнаёт о своём ответе.
// Правильный вариант никогда не возвращается, только вердикт и счёт.
type SubmitResult struct {
	IsCorrect  bool `json:"is_correct"`
	Score      int  `json:"score"`
	TotalScore int  `json:"total_score"`
}

// AnswerService ведёт реестр ответов живой сессии
type AnswerService struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	playerRepo   repository.PlayerRepository
	answerRepo   repository.AnswerRepository
	emitter      EventEmitter
}

// NewAnswerService создает новый сервис ответов
func NewAnswerService(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	playerRepo repository.PlayerRepository,
	answerRepo repository.AnswerRepository,
	emitter EventEmitter,
) *AnswerService {
	return &AnswerService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		playerRepo:   playerRepo,
		answerRepo:   answerRepo,
		emitter:      emitter,
	}
}

// Submit записывает ответ игрока на текущий вопрос.
// Предусловия проверяются в фиксированном порядке: статус сессии,
// членство в ростере, актуальность вопроса, допустимость варианта.
// Повторный ответ на тот же вопрос отклоняется уникальным индексом БД.
func (s *AnswerService) Submit(quizID, playerID, questionID string, selectedOption int, timeTakenMs int64) (*SubmitResult, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsLive() {
		return nil, fmt.Errorf("quiz is %s, answers are accepted only while live: %w",
			quiz.Status, apperrors.ErrInvalidState)
	}

	member, err := s.playerRepo.IsMember(quizID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check roster membership: %w", err)
	}
	if !member {
		return nil, fmt.Errorf("player is not in this session's roster: %w", apperrors.ErrForbidden)
	}

	question, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return nil, err
	}
	if question.QuizID != quizID {
		return nil, apperrors.ErrNotFound
	}
	if question.Order != quiz.CurrentIndex() {
		return nil, fmt.Errorf("question %d is not the current question %d: %w",
			question.Order, quiz.CurrentIndex(), apperrors.ErrStaleQuestion)
	}

	if !question.IsValidOption(selectedOption) {
		return nil, fmt.Errorf("option index %d is out of range [0, %d): %w",
			selectedOption, question.OptionsCount(), apperrors.ErrValidation)
	}

	if timeTakenMs < 0 {
		timeTakenMs = 0
	}

	isCorrect := question.IsCorrect(selectedOption)
	score := question.CalculatePoints(isCorrect, timeTakenMs)

	answer := &entity.Answer{
		ID:             uuid.New().String(),
		QuizID:         quizID,
		PlayerID:       playerID,
		QuestionID:     questionID,
		SelectedOption: selectedOption,
		IsCorrect:      isCorrect,
		Score:          score,
		TimeTakenMs:    timeTakenMs,
		SubmittedAt:    time.Now(),
	}
	// Вставка условная: она пройдёт, только если викторина всё ещё live
	// и её курсор равен question.Order. Advance, успевший закоммититься
	// после проверок выше, оставит реестр нетронутым.
	if err := s.answerRepo.Save(answer, question.Order); err != nil {
		switch {
		case errors.Is(err, repository.ErrAnswerExists):
			return nil, fmt.Errorf("answer for this question is already recorded: %w",
				apperrors.ErrDuplicateAnswer)
		case errors.Is(err, repository.ErrCursorMoved):
			return nil, s.staleOnInsert(quizID, question.Order)
		}
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	totalScore, err := s.answerRepo.PlayerScore(quizID, playerID)
	if err != nil {
		log.Printf("[AnswerService] Не удалось получить накопленный счёт игрока %s: %v", playerID, err)
		totalScore = score
	}

	// Событие не раскрывает ни выбранный вариант, ни вердикт
	if s.emitter != nil {
		err := s.emitter.BroadcastEventToQuiz(quizID, websocket.ANSWER_RECORDED, map[string]interface{}{
			"quiz_id":        quizID,
			"question_index": question.Order,
		})
		if err != nil {
			log.Printf("[AnswerService] Не удалось разослать событие об ответе в ID=%s: %v", quizID, err)
		}
	}

	return &SubmitResult{
		IsCorrect:  isCorrect,
		Score:      score,
		TotalScore: totalScore,
	}, nil
}

// staleOnInsert переводит проигранную условному INSERT гонку в доменную
// ошибку: если викторина уже не live, ответы больше не принимаются вовсе,
// иначе хост успел сдвинуть курсор и вопрос стал неактуальным.
func (s *AnswerService) staleOnInsert(quizID string, questionOrder int) error {
	current, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return err
	}
	if !current.IsLive() {
		return fmt.Errorf("quiz is %s, answers are accepted only while live: %w",
			current.Status, apperrors.ErrInvalidState)
	}
	return fmt.Errorf("question %d is no longer the current question %d: %w",
		questionOrder, current.CurrentIndex(), apperrors.ErrStaleQuestion)
}

// PlayerAnswers возвращает ответы игрока в этой викторине
func (s *AnswerService) PlayerAnswers(quizID, playerID string) ([]entity.Answer, error) {
	member, err := s.playerRepo.IsMember(quizID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check roster membership: %w", err)
	}
	if !member {
		return nil, fmt.Errorf("player is not in this session's roster: %w", apperrors.ErrForbidden)
	}
	return s.answerRepo.GetByPlayer(quizID, playerID)
}
