package service

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/quizpin-api/internal/config"
	"github.com/yourusername/quizpin-api/internal/domain/entity"
	"github.com/yourusername/quizpin-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
)

// pinCacheTTL задаёт время жизни кеша резолва пина.
// Короткий TTL, потому что статус викторины меняется при старте и завершении.
const pinCacheTTL = 30 * time.Second

// QuestionInput описывает входные данные одного вопроса
type QuestionInput struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
}

// CreateQuizInput описывает входные данные для создания викторины
type CreateQuizInput struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Difficulty      string          `json:"difficulty"`
	Prize           float64         `json:"prize"`
	TimePerQuestion int             `json:"time_per_question"`
	Questions       []QuestionInput `json:"questions"`
}

// ResolvedPin содержит публичную информацию о викторине по её пину
type ResolvedPin struct {
	QuizID         string `json:"quiz_id"`
	Title          string `json:"title"`
	HostName       string `json:"host_name"`
	Status         string `json:"status"`
	TotalQuestions int    `json:"total_questions"`
}

// QuizService предоставляет методы для работы с викторинами
type QuizService struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	gameCfg      config.GameConfig
}

// NewQuizService создает новый сервис викторин
func NewQuizService(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	gameCfg config.GameConfig,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		gameCfg:      gameCfg,
	}
}

// pinCacheKey формирует ключ кеша для резолва пина
func pinCacheKey(pin string) string {
	return "quizpin:pin:" + pin
}

// CreateQuiz создает новую викторину с вопросами в одной транзакции
func (s *QuizService) CreateQuiz(hostID, hostName string, input CreateQuizInput) (*entity.Quiz, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", apperrors.ErrValidation)
	}
	maxQuestions := s.gameCfg.MaxQuestionsPerQuiz
	if maxQuestions <= 0 {
		maxQuestions = 100
	}
	if len(input.Questions) > maxQuestions {
		return nil, fmt.Errorf("максимальное количество вопросов – %d: %w", maxQuestions, apperrors.ErrValidation)
	}
	for i, q := range input.Questions {
		if err := validateQuestionInput(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
	}

	timePerQuestion := input.TimePerQuestion
	if timePerQuestion <= 0 {
		timePerQuestion = s.gameCfg.DefaultTimePerQuestion
	}
	if timePerQuestion <= 0 {
		timePerQuestion = 30
	}
	category := input.Category
	if category == "" {
		category = "general"
	}
	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = "easy"
	}

	attempts := s.gameCfg.PinMaxAttempts
	if attempts <= 0 {
		attempts = 10
	}

	// Генерация пина и создание викторины с ограниченным числом попыток.
	// Проверка PinInUse снимает большинство коллизий, а частичный уникальный
	// индекс в БД закрывает гонку между проверкой и вставкой.
	for attempt := 0; attempt < attempts; attempt++ {
		pin := fmt.Sprintf("%06d", rand.Intn(1000000))

		inUse, err := s.quizRepo.PinInUse(pin)
		if err != nil {
			return nil, fmt.Errorf("failed to check pin availability: %w", err)
		}
		if inUse {
			log.Printf("[QuizService] Пин %s уже занят, попытка %d/%d", pin, attempt+1, attempts)
			continue
		}

		quiz := &entity.Quiz{
			ID:              uuid.New().String(),
			Title:           input.Title,
			Description:     input.Description,
			Category:        category,
			Difficulty:      difficulty,
			Prize:           input.Prize,
			TimePerQuestion: timePerQuestion,
			GamePin:         pin,
			HostID:          hostID,
			HostName:        hostName,
			Status:          entity.QuizStatusDraft,
			TotalQuestions:  len(input.Questions),
		}

		questions := make([]entity.Question, 0, len(input.Questions))
		for i, q := range input.Questions {
			questions = append(questions, entity.Question{
				ID:            uuid.New().String(),
				QuizID:        quiz.ID,
				Text:          q.Text,
				Options:       entity.StringArray(q.Options),
				CorrectOption: q.CorrectOption,
				Order:         i,
			})
		}

		err = s.quizRepo.CreateWithQuestions(quiz, questions)
		if err == nil {
			log.Printf("[QuizService] Викторина ID=%s создана с пином %s (%d вопросов)", quiz.ID, pin, len(questions))
			return quiz, nil
		}
		if errors.Is(err, repository.ErrPinTaken) {
			log.Printf("[QuizService] Гонка за пин %s проиграна, попытка %d/%d", pin, attempt+1, attempts)
			continue
		}
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	return nil, apperrors.ErrPinSpaceExhausted
}

// validateQuestionInput проверяет корректность вопроса
func validateQuestionInput(q QuestionInput) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question text is required: %w", apperrors.ErrValidation)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question must have at least 2 options: %w", apperrors.ErrValidation)
	}
	if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		return fmt.Errorf("correct option index %d is out of range: %w", q.CorrectOption, apperrors.ErrValidation)
	}
	return nil
}

// GetQuizByID возвращает викторину по ID
func (s *QuizService) GetQuizByID(quizID string) (*entity.Quiz, error) {
	return s.quizRepo.GetByID(quizID)
}

// GetQuizWithQuestions возвращает викторину с вопросами
func (s *QuizService) GetQuizWithQuestions(quizID string) (*entity.Quiz, error) {
	return s.quizRepo.GetWithQuestions(quizID)
}

// ListQuizzes возвращает список викторин с фильтрацией и пагинацией
func (s *QuizService) ListQuizzes(page, pageSize int, filters repository.QuizFilters) ([]entity.Quiz, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.quizRepo.ListWithFilters(filters, pageSize, offset)
}

// ResolvePin возвращает публичную информацию о незавершённой викторине по пину.
// Результат кешируется в Redis с коротким TTL.
func (s *QuizService) ResolvePin(pin string) (*ResolvedPin, error) {
	if !entity.IsValidGamePin(pin) {
		return nil, fmt.Errorf("game pin must be exactly 6 digits: %w", apperrors.ErrValidation)
	}

	var cached ResolvedPin
	if err := s.cacheRepo.GetJSON(pinCacheKey(pin), &cached); err == nil {
		return &cached, nil
	}

	quiz, err := s.quizRepo.GetActiveByPin(pin)
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedPin{
		QuizID:         quiz.ID,
		Title:          quiz.Title,
		HostName:       quiz.HostName,
		Status:         quiz.Status,
		TotalQuestions: quiz.TotalQuestions,
	}

	if err := s.cacheRepo.SetJSON(pinCacheKey(pin), resolved, pinCacheTTL); err != nil {
		log.Printf("[QuizService] Не удалось закешировать резолв пина %s: %v", pin, err)
	}
	return resolved, nil
}

// InvalidatePinCache сбрасывает кеш резолва пина (вызывается при смене статуса)
func (s *QuizService) InvalidatePinCache(pin string) {
	if err := s.cacheRepo.Delete(pinCacheKey(pin)); err != nil {
		log.Printf("[QuizService] Не удалось сбросить кеш пина %s: %v", pin, err)
	}
}

// AddQuestion добавляет вопрос в хвост draft-викторины
func (s *QuizService) AddQuestion(quizID, actorID string, input QuestionInput) (*entity.Question, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsHost(actorID) {
		return nil, fmt.Errorf("only the host can modify questions: %w", apperrors.ErrForbidden)
	}
	if !quiz.IsDraft() {
		return nil, fmt.Errorf("questions can only be added to a draft quiz: %w", apperrors.ErrInvalidState)
	}
	if err := validateQuestionInput(input); err != nil {
		return nil, err
	}

	maxQuestions := s.gameCfg.MaxQuestionsPerQuiz
	if maxQuestions <= 0 {
		maxQuestions = 100
	}
	count, err := s.questionRepo.CountByQuizID(quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if int(count) >= maxQuestions {
		return nil, fmt.Errorf("максимальное количество вопросов – %d: %w", maxQuestions, apperrors.ErrValidation)
	}

	question := &entity.Question{
		ID:            uuid.New().String(),
		QuizID:        quizID,
		Text:          input.Text,
		Options:       entity.StringArray(input.Options),
		CorrectOption: input.CorrectOption,
	}
	if err := s.questionRepo.Create(question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return question, nil
}

// UpdateQuestion обновляет вопрос draft-викторины
func (s *QuizService) UpdateQuestion(quizID, questionID, actorID string, input QuestionInput) (*entity.Question, error) {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsHost(actorID) {
		return nil, fmt.Errorf("only the host can modify questions: %w", apperrors.ErrForbidden)
	}
	if !quiz.IsDraft() {
		return nil, fmt.Errorf("questions can only be updated on a draft quiz: %w", apperrors.ErrInvalidState)
	}
	if err := validateQuestionInput(input); err != nil {
		return nil, err
	}

	question, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return nil, err
	}
	if question.QuizID != quizID {
		return nil, apperrors.ErrNotFound
	}

	question.Text = input.Text
	question.Options = entity.StringArray(input.Options)
	question.CorrectOption = input.CorrectOption
	if err := s.questionRepo.Update(question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return question, nil
}

// DeleteQuestion удаляет вопрос draft-викторины с уплотнением порядка оставшихся
func (s *QuizService) DeleteQuestion(quizID, questionID, actorID string) error {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return err
	}
	if !quiz.IsHost(actorID) {
		return fmt.Errorf("only the host can modify questions: %w", apperrors.ErrForbidden)
	}
	if !quiz.IsDraft() {
		return fmt.Errorf("questions can only be deleted from a draft quiz: %w", apperrors.ErrInvalidState)
	}
	return s.questionRepo.DeleteWithReorder(quizID, questionID)
}

// DeleteQuiz удаляет викторину вместе с вопросами и ответами
func (s *QuizService) DeleteQuiz(quizID, actorID string) error {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return err
	}
	if !quiz.IsHost(actorID) {
		return fmt.Errorf("only the host can delete the quiz: %w", apperrors.ErrForbidden)
	}
	if quiz.IsLive() {
		return fmt.Errorf("cannot delete a live quiz: %w", apperrors.ErrInvalidState)
	}

	if err := s.quizRepo.Delete(quizID); err != nil {
		return err
	}
	s.InvalidatePinCache(quiz.GamePin)
	return nil
}
