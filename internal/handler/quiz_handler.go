package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quizpin-api/internal/domain/repository"
	"github.com/yourusername/quizpin-api/internal/handler/dto"
	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
	"github.com/yourusername/quizpin-api/internal/service"
)

// QuizHandler обрабатывает запросы, связанные с викторинами
type QuizHandler struct {
	quizService        *service.QuizService
	sessionService     *service.SessionService
	rosterService      *service.RosterService
	leaderboardService *service.LeaderboardService
	authService        *service.AuthService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(
	quizService *service.QuizService,
	sessionService *service.SessionService,
	rosterService *service.RosterService,
	leaderboardService *service.LeaderboardService,
	authService *service.AuthService,
) *QuizHandler {
	return &QuizHandler{
		quizService:        quizService,
		sessionService:     sessionService,
		rosterService:      rosterService,
		leaderboardService: leaderboardService,
		authService:        authService,
	}
}

// QuestionRequest представляет один вопрос в запросе
type QuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=3,max=500"`
	Options       []string `json:"options" binding:"required,min=2,max=6"`
	CorrectOption int      `json:"correct_option"`
}

// CreateQuizRequest представляет запрос на создание викторины
type CreateQuizRequest struct {
	Title           string            `json:"title" binding:"required,min=3,max=100"`
	Description     string            `json:"description" binding:"omitempty,max=500"`
	Category        string            `json:"category" binding:"omitempty,max=50"`
	Difficulty      string            `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Prize           float64           `json:"prize" binding:"omitempty,min=0"`
	TimePerQuestion int               `json:"time_per_question" binding:"omitempty,min=5,max=300"`
	Questions       []QuestionRequest `json:"questions" binding:"omitempty,dive"`
}

// CreateQuiz обрабатывает запрос на создание викторины
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	hostID := c.MustGet("host_id").(string)

	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	host, err := h.authService.GetHostByID(hostID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	input := service.CreateQuizInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Difficulty:      req.Difficulty,
		Prize:           req.Prize,
		TimePerQuestion: req.TimePerQuestion,
	}
	for _, q := range req.Questions {
		input.Questions = append(input.Questions, service.QuestionInput{
			Text:          q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
		})
	}

	quiz, err := h.quizService.CreateQuiz(hostID, host.DisplayName, input)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz, true))
}

// ListQuizzes возвращает список викторин с фильтрами и пагинацией
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	filters := repository.QuizFilters{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		HostID:   c.Query("host_id"),
		Search:   c.Query("search"),
	}

	quizzes, total, err := h.quizService.ListQuizzes(page, perPage, filters)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListQuizResponse(quizzes, total, page, perPage))
}

// GetQuiz возвращает викторину с вопросами.
// Правильные варианты видны только хосту и всем после завершения.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)

	quiz, err := h.quizService.GetQuizWithQuestions(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	actorID, _ := c.Get("host_id")
	includeCorrect := quiz.IsCompleted()
	if id, ok := actorID.(string); ok && quiz.IsHost(id) {
		includeCorrect = true
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, includeCorrect))
}

// DeleteQuiz удаляет викторину вместе с вопросами и ответами
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)
	hostID := c.MustGet("host_id").(string)

	if err := h.quizService.DeleteQuiz(quizID, hostID); err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted"})
}

// AddQuestion добавляет вопрос в draft-викторину
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)
	hostID := c.MustGet("host_id").(string)

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.quizService.AddQuestion(quizID, hostID, service.QuestionInput{
		Text:          req.Text,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
	})
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuestionResponse(question, true))
}

// UpdateQuestion обновляет вопрос draft-викторины
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)
	questionID := c.MustGet("questionID").(string)
	hostID := c.MustGet("host_id").(string)

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.quizService.UpdateQuestion(quizID, questionID, hostID, service.QuestionInput{
		Text:          req.Text,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
	})
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuestionResponse(question, true))
}

// DeleteQuestion удаляет вопрос draft-викторины
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)
	questionID := c.MustGet("questionID").(string)
	hostID := c.MustGet("host_id").(string)

	if err := h.quizService.DeleteQuestion(quizID, questionID, hostID); err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// StartSession запускает живую сессию викторины
func (h *QuizHandler) StartSession(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)
	hostID := c.MustGet("host_id").(string)

	quiz, err := h.sessionService.Start(quizID, hostID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, false))
}

// AdvanceSession сдвигает курсор на следующий вопрос или завершает сессию
func (h *QuizHandler) AdvanceSession(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)
	hostID := c.MustGet("host_id").(string)

	result, err := h.sessionService.Advance(quizID, hostID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPlayers возвращает ростер сессии в порядке присоединения
func (h *QuizHandler) GetPlayers(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)

	players, err := h.rosterService.Roster(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"players": players, "count": len(players)})
}

// GetLeaderboard возвращает турнирную таблицу викторины
func (h *QuizHandler) GetLeaderboard(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)

	entries, err := h.leaderboardService.Leaderboard(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// GetGlobalLeaderboard возвращает глобальную таблицу по завершённым викторинам
func (h *QuizHandler) GetGlobalLeaderboard(c *gin.Context) {
	entries, err := h.leaderboardService.GlobalLeaderboard()
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// ExportLeaderboard выгружает турнирную таблицу викторины в CSV или XLSX
func (h *QuizHandler) ExportLeaderboard(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)
	hostID := c.MustGet("host_id").(string)
	format := c.DefaultQuery("format", "csv")

	quiz, err := h.quizService.GetQuizByID(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}
	if !quiz.IsHost(hostID) {
		h.handleQuizError(c, fmt.Errorf("only the host can export the leaderboard: %w", apperrors.ErrForbidden))
		return
	}

	entries, err := h.leaderboardService.Leaderboard(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz_%s_leaderboard_%s", quiz.GamePin, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, entries, filename)
	default:
		h.exportCSV(c, entries, filename)
	}
}

// exportCSV экспортирует лидерборд в CSV с правильным экранированием спецсимволов
func (h *QuizHandler) exportCSV(c *gin.Context, entries []service.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Место", "Игрок", "Очки", "Правильных", "Суммарное время (мс)"})
	for _, e := range entries {
		writer.Write([]string{
			strconv.Itoa(e.Rank),
			sanitizeForExcel(e.DisplayName),
			strconv.Itoa(e.Score),
			strconv.Itoa(e.CorrectAnswers),
			strconv.FormatInt(e.TotalTimeMs, 10),
		})
	}
}

// exportXLSX экспортирует лидерборд в Excel с использованием StreamWriter
func (h *QuizHandler) exportXLSX(c *gin.Context, entries []service.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Лидерборд"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[QuizHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Место", "Игрок", "Очки", "Правильных", "Суммарное время (мс)"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[QuizHandler] Ошибка записи заголовков: %v", err)
	}

	for i, e := range entries {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{e.Rank, sanitizeForExcel(e.DisplayName), e.Score, e.CorrectAnswers, e.TotalTimeMs}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[QuizHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[QuizHandler] Ошибка при Flush: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[QuizHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleQuizError транслирует доменные ошибки в HTTP-статусы
func (h *QuizHandler) handleQuizError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrInvalidState) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "invalid_state"})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	} else if errors.Is(err, apperrors.ErrPinSpaceExhausted) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "error_type": "pin_space_exhausted"})
	} else {
		log.Printf("ERROR: Internal server error in QuizHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
