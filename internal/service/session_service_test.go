package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
	"github.com/yourusername/quizpin-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
	"github.com/yourusername/quizpin-api/internal/websocket"
)

func intPtr(v int) *int { return &v }

// createTestSessionService собирает SessionService с общими моками
func createTestSessionService(
	quizRepo *MockQuizRepository,
	questionRepo *MockQuestionRepository,
	playerRepo *MockPlayerRepository,
	answerRepo *MockAnswerRepository,
	cacheRepo *MockCacheRepository,
	emitter *MockEventEmitter,
) *SessionService {
	leaderboardService := NewLeaderboardService(quizRepo, playerRepo, answerRepo, cacheRepo)
	quizService := NewQuizService(quizRepo, questionRepo, cacheRepo, defaultTestGameConfig())
	return NewSessionService(quizRepo, questionRepo, leaderboardService, quizService, emitter)
}

// ============================================================================
// Тесты для SessionService.Start
// ============================================================================

func TestSessionService_Start_Success(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuestionRepo := new(MockQuestionRepository)
	mockCacheRepo := new(MockCacheRepository)
	mockEmitter := new(MockEventEmitter)

	draftQuiz := &entity.Quiz{
		ID:             "quiz-1",
		HostID:         "host-1",
		GamePin:        "042137",
		Status:         entity.QuizStatusDraft,
		TotalQuestions: 3,
	}
	firstQuestion := &entity.Question{ID: "q-0", QuizID: "quiz-1", Text: "Первый вопрос", Order: 0}

	mockQuizRepo.On("GetByID", "quiz-1").Return(draftQuiz, nil)
	mockQuizRepo.On("AtomicStart", "quiz-1", mock.AnythingOfType("time.Time")).Return(nil)
	mockCacheRepo.On("Delete", "quizpin:pin:042137").Return(nil)
	mockQuestionRepo.On("GetByQuizAndOrder", "quiz-1", 0).Return(firstQuestion, nil)
	mockEmitter.On("BroadcastEventToQuiz", "quiz-1", websocket.SESSION_STARTED, mock.Anything).Return(nil)

	svc := createTestSessionService(mockQuizRepo, mockQuestionRepo, new(MockPlayerRepository), new(MockAnswerRepository), mockCacheRepo, mockEmitter)

	// Act
	quiz, err := svc.Start("quiz-1", "host-1")

	// Assert
	require.NoError(t, err, "Старт draft-викторины должен быть успешным")
	require.NotNil(t, quiz)
	assert.Equal(t, entity.QuizStatusLive, quiz.Status)
	require.NotNil(t, quiz.CurrentQuestion)
	assert.Equal(t, 0, *quiz.CurrentQuestion, "Курсор устанавливается на первый вопрос")
	require.NotNil(t, quiz.StartedAt)
	mockQuizRepo.AssertExpectations(t)
	mockEmitter.AssertExpectations(t)
}

func TestSessionService_Start_NotHost(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuizRepo.On("GetByID", "quiz-1").Return(&entity.Quiz{
		ID:             "quiz-1",
		HostID:         "host-1",
		Status:         entity.QuizStatusDraft,
		TotalQuestions: 3,
	}, nil)

	svc := createTestSessionService(mockQuizRepo, new(MockQuestionRepository), new(MockPlayerRepository), new(MockAnswerRepository), new(MockCacheRepository), new(MockEventEmitter))

	// Act
	quiz, err := svc.Start("quiz-1", "другой-хост")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Nil(t, quiz)
	mockQuizRepo.AssertNotCalled(t, "AtomicStart")
}

func TestSessionService_Start_NoQuestions(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuizRepo.On("GetByID", "quiz-1").Return(&entity.Quiz{
		ID:             "quiz-1",
		HostID:         "host-1",
		Status:         entity.QuizStatusDraft,
		TotalQuestions: 0,
	}, nil)

	svc := createTestSessionService(mockQuizRepo, new(MockQuestionRepository), new(MockPlayerRepository), new(MockAnswerRepository), new(MockCacheRepository), new(MockEventEmitter))

	// Act
	quiz, err := svc.Start("quiz-1", "host-1")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrInvalidState, "Пустую викторину запустить нельзя")
	assert.Nil(t, quiz)
	mockQuizRepo.AssertNotCalled(t, "AtomicStart")
}

func TestSessionService_Start_AlreadyStarted(t *testing.T) {
	// Arrange: условный UPDATE не прошёл, повторное чтение показывает live
	mockQuizRepo := new(MockQuizRepository)

	draftQuiz := &entity.Quiz{
		ID:             "quiz-1",
		HostID:         "host-1",
		Status:         entity.QuizStatusDraft,
		TotalQuestions: 3,
	}
	liveQuiz := &entity.Quiz{
		ID:              "quiz-1",
		HostID:          "host-1",
		Status:          entity.QuizStatusLive,
		CurrentQuestion: intPtr(0),
		TotalQuestions:  3,
	}

	mockQuizRepo.On("GetByID", "quiz-1").Return(draftQuiz, nil).Once()
	mockQuizRepo.On("AtomicStart", "quiz-1", mock.AnythingOfType("time.Time")).Return(repository.ErrQuizNotDraft)
	mockQuizRepo.On("GetByID", "quiz-1").Return(liveQuiz, nil).Once()

	svc := createTestSessionService(mockQuizRepo, new(MockQuestionRepository), new(MockPlayerRepository), new(MockAnswerRepository), new(MockCacheRepository), new(MockEventEmitter))

	// Act
	quiz, err := svc.Start("quiz-1", "host-1")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrInvalidState, "Повторный старт должен дать InvalidState")
	assert.Contains(t, err.Error(), "live")
	assert.Nil(t, quiz)
	mockQuizRepo.AssertExpectations(t)
}

// ============================================================================
// Тесты для SessionService.Advance
// ============================================================================

func TestSessionService_Advance_Success(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuestionRepo := new(MockQuestionRepository)
	mockEmitter := new(MockEventEmitter)

	liveQuiz := &entity.Quiz{
		ID:              "quiz-1",
		HostID:          "host-1",
		Status:          entity.QuizStatusLive,
		CurrentQuestion: intPtr(0),
		TotalQuestions:  3,
	}
	nextQuestion := &entity.Question{ID: "q-1", QuizID: "quiz-1", Text: "Второй вопрос", Order: 1}

	mockQuizRepo.On("GetByID", "quiz-1").Return(liveQuiz, nil)
	mockQuizRepo.On("AtomicAdvance", "quiz-1", 0).Return(nil)
	mockQuestionRepo.On("GetByQuizAndOrder", "quiz-1", 1).Return(nextQuestion, nil)
	mockEmitter.On("BroadcastEventToQuiz", "quiz-1", websocket.QUESTION_ADVANCED, mock.Anything).Return(nil)

	svc := createTestSessionService(mockQuizRepo, mockQuestionRepo, new(MockPlayerRepository), new(MockAnswerRepository), new(MockCacheRepository), mockEmitter)

	// Act
	result, err := svc.Advance("quiz-1", "host-1")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Completed)
	assert.Equal(t, 1, result.QuestionIndex)
	assert.Equal(t, "q-1", result.Question.ID)
	mockQuizRepo.AssertExpectations(t)
	mockEmitter.AssertExpectations(t)
}

func TestSessionService_Advance_LastQuestionCompletes(t *testing.T) {
	// Arrange: курсор на последнем вопросе, advance завершает викторину
	// и замораживает финальный лидерборд
	mockQuizRepo := new(MockQuizRepository)
	mockPlayerRepo := new(MockPlayerRepository)
	mockAnswerRepo := new(MockAnswerRepository)
	mockCacheRepo := new(MockCacheRepository)
	mockEmitter := new(MockEventEmitter)

	liveQuiz := &entity.Quiz{
		ID:              "quiz-1",
		HostID:          "host-1",
		GamePin:         "042137",
		Status:          entity.QuizStatusLive,
		CurrentQuestion: intPtr(2),
		TotalQuestions:  3,
	}

	mockQuizRepo.On("GetByID", "quiz-1").Return(liveQuiz, nil)
	mockQuizRepo.On("AtomicComplete", "quiz-1", 2, mock.AnythingOfType("time.Time")).Return(nil)
	mockCacheRepo.On("Delete", "quizpin:pin:042137").Return(nil)
	mockPlayerRepo.On("GetByQuizID", "quiz-1").Return([]entity.Player{
		{ID: "p-1", QuizID: "quiz-1", DisplayName: "Алиса"},
	}, nil)
	mockAnswerRepo.On("GetByQuizID", "quiz-1").Return([]entity.Answer{
		{PlayerID: "p-1", Score: 1, IsCorrect: true, TimeTakenMs: 1200},
	}, nil)
	mockCacheRepo.On("SetJSON", "quizpin:leaderboard:quiz-1", mock.Anything, mock.Anything).Return(nil)
	mockEmitter.On("BroadcastEventToQuiz", "quiz-1", websocket.SESSION_COMPLETED, mock.Anything).Return(nil)

	svc := createTestSessionService(mockQuizRepo, new(MockQuestionRepository), mockPlayerRepo, mockAnswerRepo, mockCacheRepo, mockEmitter)

	// Act
	result, err := svc.Advance("quiz-1", "host-1")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Completed, "После последнего вопроса викторина завершается")
	require.Len(t, result.Leaderboard, 1)
	assert.Equal(t, "Алиса", result.Leaderboard[0].DisplayName)
	assert.Equal(t, 1, result.Leaderboard[0].Score)
	mockQuizRepo.AssertExpectations(t)
	mockQuizRepo.AssertNotCalled(t, "AtomicAdvance")
	mockEmitter.AssertExpectations(t)
}

func TestSessionService_Advance_ConcurrentAdvanceLosesRace(t *testing.T) {
	// Arrange: CAS не прошёл, викторина всё ещё live - гонка двух advance
	mockQuizRepo := new(MockQuizRepository)

	liveQuiz := &entity.Quiz{
		ID:              "quiz-1",
		HostID:          "host-1",
		Status:          entity.QuizStatusLive,
		CurrentQuestion: intPtr(0),
		TotalQuestions:  3,
	}

	mockQuizRepo.On("GetByID", "quiz-1").Return(liveQuiz, nil)
	mockQuizRepo.On("AtomicAdvance", "quiz-1", 0).Return(repository.ErrCursorMoved)

	svc := createTestSessionService(mockQuizRepo, new(MockQuestionRepository), new(MockPlayerRepository), new(MockAnswerRepository), new(MockCacheRepository), new(MockEventEmitter))

	// Act
	result, err := svc.Advance("quiz-1", "host-1")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict, "Проигравший гонку advance получает Conflict")
	assert.Nil(t, result)
}

func TestSessionService_Advance_RaceAgainstCompletion(t *testing.T) {
	// Arrange: два advance на последнем вопросе, победитель уже завершил
	// викторину. Проигравший CAS получает Conflict, а не InvalidState:
	// на момент его чтения викторина ещё была live.
	mockQuizRepo := new(MockQuizRepository)

	liveQuiz := &entity.Quiz{
		ID:              "quiz-1",
		HostID:          "host-1",
		Status:          entity.QuizStatusLive,
		CurrentQuestion: intPtr(2),
		TotalQuestions:  3,
	}

	mockQuizRepo.On("GetByID", "quiz-1").Return(liveQuiz, nil).Once()
	mockQuizRepo.On("AtomicComplete", "quiz-1", 2, mock.AnythingOfType("time.Time")).Return(repository.ErrCursorMoved)

	svc := createTestSessionService(mockQuizRepo, new(MockQuestionRepository), new(MockPlayerRepository), new(MockAnswerRepository), new(MockCacheRepository), new(MockEventEmitter))

	// Act
	result, err := svc.Advance("quiz-1", "host-1")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict, "Гонка с завершением - тоже Conflict для проигравшего")
	assert.Nil(t, result)
	mockQuizRepo.AssertExpectations(t)
}

func TestSessionService_Advance_NotLive(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuizRepo.On("GetByID", "quiz-1").Return(&entity.Quiz{
		ID:             "quiz-1",
		HostID:         "host-1",
		Status:         entity.QuizStatusDraft,
		TotalQuestions: 3,
	}, nil)

	svc := createTestSessionService(mockQuizRepo, new(MockQuestionRepository), new(MockPlayerRepository), new(MockAnswerRepository), new(MockCacheRepository), new(MockEventEmitter))

	// Act
	result, err := svc.Advance("quiz-1", "host-1")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Nil(t, result)
	mockQuizRepo.AssertNotCalled(t, "AtomicAdvance")
}
