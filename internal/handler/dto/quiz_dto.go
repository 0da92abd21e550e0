package dto

import (
	"time"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
)

// QuestionResponse представляет вопрос в формате для ответа клиенту.
// CorrectOption заполняется только для хоста викторины или после её завершения.
type QuestionResponse struct {
	ID            string    `json:"id"`
	QuizID        string    `json:"quiz_id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	Order         int       `json:"order"`
	CorrectOption *int      `json:"correct_option,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// QuizResponse представляет викторину в формате для ответа клиенту
type QuizResponse struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description,omitempty"`
	Category        string             `json:"category"`
	Difficulty      string             `json:"difficulty"`
	Prize           float64            `json:"prize"`
	TimePerQuestion int                `json:"time_per_question"`
	GamePin         string             `json:"game_pin"`
	HostID          string             `json:"host_id"`
	HostName        string             `json:"host_name"`
	Status          string             `json:"status"`
	CurrentQuestion *int               `json:"current_question,omitempty"`
	TotalQuestions  int                `json:"total_questions"`
	Questions       []QuestionResponse `json:"questions,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	StartedAt       *time.Time         `json:"started_at,omitempty"`
	EndedAt         *time.Time         `json:"ended_at,omitempty"`
}

// PaginatedQuizResponse представляет пагинированный список викторин
type PaginatedQuizResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// NewQuestionResponse создает DTO для вопроса.
// includeCorrect управляет выдачей правильного варианта.
func NewQuestionResponse(q *entity.Question, includeCorrect bool) QuestionResponse {
	resp := QuestionResponse{
		ID:        q.ID,
		QuizID:    q.QuizID,
		Text:      q.Text,
		Options:   []string(q.Options),
		Order:     q.Order,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
	if includeCorrect {
		correct := q.CorrectOption
		resp.CorrectOption = &correct
	}
	return resp
}

// NewQuizResponse создает DTO для викторины
func NewQuizResponse(quiz *entity.Quiz, includeCorrect bool) *QuizResponse {
	resp := &QuizResponse{
		ID:              quiz.ID,
		Title:           quiz.Title,
		Description:     quiz.Description,
		Category:        quiz.Category,
		Difficulty:      quiz.Difficulty,
		Prize:           quiz.Prize,
		TimePerQuestion: quiz.TimePerQuestion,
		GamePin:         quiz.GamePin,
		HostID:          quiz.HostID,
		HostName:        quiz.HostName,
		Status:          quiz.Status,
		CurrentQuestion: quiz.CurrentQuestion,
		TotalQuestions:  quiz.TotalQuestions,
		CreatedAt:       quiz.CreatedAt,
		StartedAt:       quiz.StartedAt,
		EndedAt:         quiz.EndedAt,
	}
	for i := range quiz.Questions {
		resp.Questions = append(resp.Questions, NewQuestionResponse(&quiz.Questions[i], includeCorrect))
	}
	return resp
}

// NewListQuizResponse создает DTO для списка викторин без вопросов
func NewListQuizResponse(quizzes []entity.Quiz, total int64, page, perPage int) *PaginatedQuizResponse {
	resp := &PaginatedQuizResponse{
		Quizzes: make([]QuizResponse, 0, len(quizzes)),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
	for i := range quizzes {
		q := quizzes[i]
		q.Questions = nil
		resp.Quizzes = append(resp.Quizzes, *NewQuizResponse(&q, false))
	}
	return resp
}
