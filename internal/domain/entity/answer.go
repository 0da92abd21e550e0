package entity

import (
	"time"
)

// Answer представляет ответ игрока на вопрос.
// Пара (player_id, question_id) уникальна: на вопрос можно ответить ровно один раз.
// Записи append-only — после записи не изменяются и не удаляются,
// кроме каскадного удаления вместе с вопросом draft-викторины.
type Answer struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID         string    `gorm:"type:uuid;not null;index" json:"quiz_id"`
	PlayerID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_player_question" json:"player_id"`
	QuestionID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_player_question" json:"question_id"`
	SelectedOption int       `gorm:"not null;default:-1" json:"selected_option"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	Score          int       `gorm:"not null;default:0" json:"score"`
	TimeTakenMs    int64     `gorm:"not null;default:0" json:"time_taken_ms"`
	SubmittedAt    time.Time `gorm:"not null" json:"submitted_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}
