package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Host представляет ведущего викторин — единственный тип аккаунта в системе.
// Игроки аккаунтов не имеют, они живут в рамках одной сессии (см. Player).
type Host struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	DisplayName string    `gorm:"size:50;not null" json:"display_name"`
	Password    string    `gorm:"size:100;not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Host) TableName() string {
	return "hosts"
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (h *Host) BeforeSave(tx *gorm.DB) error {
	if len(h.Password) > 0 && !strings.HasPrefix(h.Password, "$2a$") &&
		!strings.HasPrefix(h.Password, "$2b$") && !strings.HasPrefix(h.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(h.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[Host.BeforeSave] Ошибка при хешировании пароля для email=%s: %v", h.Email, err)
			return err
		}
		h.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (h *Host) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(h.Password), []byte(password))
	return err == nil
}
