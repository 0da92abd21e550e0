package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
	"github.com/yourusername/quizpin-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
	"github.com/yourusername/quizpin-api/internal/websocket"
)

// RosterService управляет составом участников сессии
type RosterService struct {
	quizRepo   repository.QuizRepository
	playerRepo repository.PlayerRepository
	emitter    EventEmitter
}

// NewRosterService создает новый сервис ростера
func NewRosterService(
	quizRepo repository.QuizRepository,
	playerRepo repository.PlayerRepository,
	emitter EventEmitter,
) *RosterService {
	return &RosterService{
		quizRepo:   quizRepo,
		playerRepo: playerRepo,
		emitter:    emitter,
	}
}

// Join добавляет игрока в ростер викторины.
// Возвращённый ID игрока служит bearer-учёткой для отправки ответов,
// поэтому он не попадает в широковещательное событие.
func (s *RosterService) Join(quizID, displayName string) (*entity.Player, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, fmt.Errorf("display name is required: %w", apperrors.ErrValidation)
	}
	if len(name) > 50 {
		return nil, fmt.Errorf("display name must be at most 50 characters: %w", apperrors.ErrValidation)
	}

	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.IsCompleted() {
		return nil, fmt.Errorf("cannot join a completed quiz: %w", apperrors.ErrInvalidState)
	}

	player := &entity.Player{
		ID:          uuid.New().String(),
		QuizID:      quizID,
		DisplayName: name,
		JoinedAt:    time.Now(),
	}
	if err := s.playerRepo.Create(player); err != nil {
		if errors.Is(err, repository.ErrDisplayNameTaken) {
			return nil, fmt.Errorf("display name %q is already taken in this session: %w",
				name, apperrors.ErrNameTaken)
		}
		return nil, fmt.Errorf("failed to join roster: %w", err)
	}

	if s.emitter != nil {
		err := s.emitter.BroadcastEventToQuiz(quizID, websocket.PLAYER_JOINED, map[string]interface{}{
			"quiz_id":      quizID,
			"display_name": player.DisplayName,
			"joined_at":    player.JoinedAt,
		})
		if err != nil {
			log.Printf("[RosterService] Не удалось разослать событие о присоединении к ID=%s: %v", quizID, err)
		}
	}

	log.Printf("[RosterService] Игрок %q присоединился к викторине ID=%s", name, quizID)
	return player, nil
}

// Roster возвращает состав участников в порядке присоединения
func (s *RosterService) Roster(quizID string) ([]entity.Player, error) {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return nil, err
	}
	return s.playerRepo.GetByQuizID(quizID)
}
