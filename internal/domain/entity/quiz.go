package entity

import (
	"regexp"
	"time"
)

// Константы статусов викторины
const (
	QuizStatusDraft     = "draft"
	QuizStatusLive      = "live"
	QuizStatusCompleted = "completed"
)

// gamePinPattern задаёт формат игрового пина: ровно 6 цифр
var gamePinPattern = regexp.MustCompile(`^\d{6}$`)

// Quiz представляет викторину и состояние её живой сессии
type Quiz struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string     `gorm:"size:100;not null" json:"title"`
	Description     string     `gorm:"size:500;not null;default:''" json:"description"`
	Category        string     `gorm:"size:50;not null;default:'general'" json:"category"`
	Difficulty      string     `gorm:"size:20;not null;default:'easy'" json:"difficulty"`
	Prize           float64    `gorm:"not null;default:0" json:"prize"`
	TimePerQuestion int        `gorm:"not null;default:30" json:"time_per_question"`
	GamePin         string     `gorm:"size:6;not null;index" json:"game_pin"`
	HostID          string     `gorm:"type:uuid;not null;index" json:"host_id"`
	HostName        string     `gorm:"size:50;not null" json:"host_name"`
	Status          string     `gorm:"size:20;not null;default:'draft';index" json:"status"`
	CurrentQuestion *int       `json:"current_question,omitempty"`
	TotalQuestions  int        `gorm:"not null;default:0" json:"total_questions"`
	Questions       []Question `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// IsDraft проверяет, находится ли викторина в лобби-состоянии
func (q *Quiz) IsDraft() bool {
	return q.Status == QuizStatusDraft
}

// IsLive проверяет, идёт ли живая сессия викторины
func (q *Quiz) IsLive() bool {
	return q.Status == QuizStatusLive
}

// IsCompleted проверяет, завершена ли викторина
func (q *Quiz) IsCompleted() bool {
	return q.Status == QuizStatusCompleted
}

// IsHost проверяет, является ли актор хостом викторины
func (q *Quiz) IsHost(actorID string) bool {
	return actorID != "" && q.HostID == actorID
}

// CurrentIndex возвращает текущий индекс вопроса.
// Для draft-викторины курсор ещё не установлен, возвращается -1.
func (q *Quiz) CurrentIndex() int {
	if q.CurrentQuestion == nil {
		return -1
	}
	return *q.CurrentQuestion
}

// IsValidGamePin проверяет формат игрового пина (ровно 6 цифр, с ведущими нулями)
func IsValidGamePin(pin string) bool {
	return gamePinPattern.MatchString(pin)
}
