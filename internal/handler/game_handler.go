package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
	"github.com/yourusername/quizpin-api/internal/service"
)

// GameHandler обрабатывает публичные игровые запросы: резолв пина,
// вход в ростер и отправку ответов. Аутентификация хоста здесь не нужна,
// игрок предъявляет свой player_id как bearer-учётку.
type GameHandler struct {
	quizService   *service.QuizService
	rosterService *service.RosterService
	answerService *service.AnswerService
}

// NewGameHandler создает новый игровой обработчик
func NewGameHandler(
	quizService *service.QuizService,
	rosterService *service.RosterService,
	answerService *service.AnswerService,
) *GameHandler {
	return &GameHandler{
		quizService:   quizService,
		rosterService: rosterService,
		answerService: answerService,
	}
}

// ResolvePinRequest представляет запрос на резолв игрового пина
type ResolvePinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// ResolvePin возвращает публичную информацию о викторине по её пину
func (h *GameHandler) ResolvePin(c *gin.Context) {
	var req ResolvePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resolved, err := h.quizService.ResolvePin(req.Pin)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolved)
}

// JoinRequest представляет запрос на вход в ростер.
// Указывается либо quiz_id, либо pin.
type JoinRequest struct {
	QuizID      string `json:"quiz_id" binding:"omitempty,uuid"`
	Pin         string `json:"pin" binding:"omitempty"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=50"`
}

// Join добавляет игрока в ростер викторины
func (h *GameHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quizID := req.QuizID
	if quizID == "" {
		if req.Pin == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "either quiz_id or pin is required"})
			return
		}
		resolved, err := h.quizService.ResolvePin(req.Pin)
		if err != nil {
			h.handleGameError(c, err)
			return
		}
		quizID = resolved.QuizID
	}

	player, err := h.rosterService.Join(quizID, req.DisplayName)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusCreated, player)
}

// SubmitAnswerRequest представляет запрос на отправку ответа
type SubmitAnswerRequest struct {
	QuizID         string `json:"quiz_id" binding:"required,uuid"`
	PlayerID       string `json:"player_id" binding:"required,uuid"`
	QuestionID     string `json:"question_id" binding:"required,uuid"`
	SelectedOption *int   `json:"selected_option" binding:"required"`
	TimeTakenMs    int64  `json:"time_taken_ms" binding:"omitempty,min=0"`
}

// SubmitAnswer записывает ответ игрока на текущий вопрос
func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.answerService.Submit(req.QuizID, req.PlayerID, req.QuestionID, *req.SelectedOption, req.TimeTakenMs)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGameError транслирует доменные ошибки в HTTP-статусы.
// Разные причины 409 различаются полем error_type.
func (h *GameHandler) handleGameError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrNameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "name_taken"})
	} else if errors.Is(err, apperrors.ErrDuplicateAnswer) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "duplicate_answer"})
	} else if errors.Is(err, apperrors.ErrStaleQuestion) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "stale_question"})
	} else if errors.Is(err, apperrors.ErrInvalidState) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "invalid_state"})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	} else {
		log.Printf("ERROR: Internal server error in GameHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
