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

// ============================================================================
// Тесты для RosterService.Join
// ============================================================================

func TestRosterService_Join_Success(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockPlayerRepo := new(MockPlayerRepository)
	mockEmitter := new(MockEventEmitter)

	mockQuizRepo.On("GetByID", "quiz-1").Return(&entity.Quiz{
		ID:     "quiz-1",
		Status: entity.QuizStatusDraft,
	}, nil)
	mockPlayerRepo.On("Create", mock.AnythingOfType("*entity.Player")).Return(nil)
	mockEmitter.On("BroadcastEventToQuiz", "quiz-1", websocket.PLAYER_JOINED, mock.Anything).Return(nil)

	svc := NewRosterService(mockQuizRepo, mockPlayerRepo, mockEmitter)

	// Act
	player, err := svc.Join("quiz-1", "  Алиса  ")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, player)
	assert.Equal(t, "Алиса", player.DisplayName, "Имя нормализуется перед сохранением")
	assert.NotEmpty(t, player.ID)
	assert.Equal(t, "quiz-1", player.QuizID)
	mockPlayerRepo.AssertExpectations(t)
	mockEmitter.AssertExpectations(t)
}

func TestRosterService_Join_EventDoesNotLeakPlayerID(t *testing.T) {
	// Arrange: ID игрока - его учётка для отправки ответов,
	// в широковещательное событие он попадать не должен
	mockQuizRepo := new(MockQuizRepository)
	mockPlayerRepo := new(MockPlayerRepository)
	mockEmitter := new(MockEventEmitter)

	mockQuizRepo.On("GetByID", "quiz-1").Return(&entity.Quiz{
		ID:     "quiz-1",
		Status: entity.QuizStatusLive,
	}, nil)
	mockPlayerRepo.On("Create", mock.AnythingOfType("*entity.Player")).Return(nil)

	var broadcastData map[string]interface{}
	mockEmitter.On("BroadcastEventToQuiz", "quiz-1", websocket.PLAYER_JOINED, mock.Anything).
		Run(func(args mock.Arguments) {
			broadcastData = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	svc := NewRosterService(mockQuizRepo, mockPlayerRepo, mockEmitter)

	// Act
	player, err := svc.Join("quiz-1", "Боб")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, broadcastData)
	assert.Equal(t, "Боб", broadcastData["display_name"])
	_, hasID := broadcastData["player_id"]
	assert.False(t, hasID, "ID игрока не должен попадать в широковещательное событие")
	_, hasRawID := broadcastData["id"]
	assert.False(t, hasRawID)
	assert.NotEmpty(t, player.ID, "Сам игрок свой ID получает из ответа")
}

func TestRosterService_Join_NameValidation(t *testing.T) {
	// Arrange
	svc := NewRosterService(new(MockQuizRepository), new(MockPlayerRepository), new(MockEventEmitter))

	longName := make([]byte, 51)
	for i := range longName {
		longName[i] = 'a'
	}

	for _, name := range []string{"", "   ", string(longName)} {
		// Act
		player, err := svc.Join("quiz-1", name)

		// Assert
		assert.ErrorIs(t, err, apperrors.ErrValidation, "Имя %q должно быть отклонено", name)
		assert.Nil(t, player)
	}
}

func TestRosterService_Join_CompletedQuiz(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuizRepo.On("GetByID", "quiz-1").Return(&entity.Quiz{
		ID:     "quiz-1",
		Status: entity.QuizStatusCompleted,
	}, nil)

	mockPlayerRepo := new(MockPlayerRepository)
	svc := NewRosterService(mockQuizRepo, mockPlayerRepo, new(MockEventEmitter))

	// Act
	player, err := svc.Join("quiz-1", "Алиса")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrInvalidState, "К завершённой викторине присоединиться нельзя")
	assert.Nil(t, player)
	mockPlayerRepo.AssertNotCalled(t, "Create")
}

func TestRosterService_Join_DuplicateName(t *testing.T) {
	// Arrange: уникальность имени обеспечивает индекс БД
	mockQuizRepo := new(MockQuizRepository)
	mockPlayerRepo := new(MockPlayerRepository)

	mockQuizRepo.On("GetByID", "quiz-1").Return(&entity.Quiz{
		ID:     "quiz-1",
		Status: entity.QuizStatusLive,
	}, nil)
	mockPlayerRepo.On("Create", mock.AnythingOfType("*entity.Player")).Return(repository.ErrDisplayNameTaken)

	mockEmitter := new(MockEventEmitter)
	svc := NewRosterService(mockQuizRepo, mockPlayerRepo, mockEmitter)

	// Act
	player, err := svc.Join("quiz-1", "Алиса")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNameTaken)
	assert.Nil(t, player)
	mockEmitter.AssertNotCalled(t, "BroadcastEventToQuiz")
}

func TestRosterService_Roster_QuizNotFound(t *testing.T) {
	// Arrange
	mockQuizRepo := new(MockQuizRepository)
	mockQuizRepo.On("GetByID", "нет-такой").Return(nil, apperrors.ErrNotFound)

	svc := NewRosterService(mockQuizRepo, new(MockPlayerRepository), new(MockEventEmitter))

	// Act
	roster, err := svc.Roster("нет-такой")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, roster)
}
