package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuiz_StatusHelpers(t *testing.T) {
	// Arrange & Act & Assert
	assert.True(t, (&Quiz{Status: QuizStatusDraft}).IsDraft())
	assert.True(t, (&Quiz{Status: QuizStatusLive}).IsLive())
	assert.True(t, (&Quiz{Status: QuizStatusCompleted}).IsCompleted())

	live := &Quiz{Status: QuizStatusLive}
	assert.False(t, live.IsDraft())
	assert.False(t, live.IsCompleted())
}

func TestQuiz_IsHost(t *testing.T) {
	// Arrange
	quiz := &Quiz{HostID: "host-1"}

	// Act & Assert
	assert.True(t, quiz.IsHost("host-1"))
	assert.False(t, quiz.IsHost("host-2"))
	assert.False(t, quiz.IsHost(""), "Пустой актор хостом не считается")
}

func TestQuiz_CurrentIndex(t *testing.T) {
	// Arrange
	cursor := 2

	// Act & Assert: у draft-викторины курсор не установлен
	assert.Equal(t, -1, (&Quiz{}).CurrentIndex(), "Без курсора возвращается -1")
	assert.Equal(t, 2, (&Quiz{CurrentQuestion: &cursor}).CurrentIndex())
}

func TestIsValidGamePin(t *testing.T) {
	// Arrange
	testCases := []struct {
		pin   string
		valid bool
	}{
		{"123456", true},
		{"000000", true}, // ведущие нули допустимы
		{"042137", true},
		{"12345", false},
		{"1234567", false},
		{"12a456", false},
		{"12 456", false},
		{"", false},
		{"-12345", false},
	}

	for _, tc := range testCases {
		t.Run(tc.pin, func(t *testing.T) {
			// Act & Assert
			assert.Equal(t, tc.valid, IsValidGamePin(tc.pin), "Пин %q", tc.pin)
		})
	}
}
