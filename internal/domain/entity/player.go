package entity

import (
	"time"
)

// Player представляет участника одной сессии викторины.
// Это не долговременный аккаунт: запись живёт только в рамках своей викторины,
// а ID игрока служит bearer-учёткой для отправки ответов.
type Player struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID      string    `gorm:"type:uuid;not null;index" json:"quiz_id"`
	DisplayName string    `gorm:"size:50;not null" json:"display_name"`
	JoinedAt    time.Time `gorm:"not null" json:"joined_at"`
}

// TableName определяет имя таблицы для GORM
func (Player) TableName() string {
	return "players"
}
