package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext создает *gin.Context для тестов с JSON body
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// ============================================================================
// Request validation tests — не требуют реальных сервисов,
// handler возвращает 400 до их вызова
// ============================================================================

func TestGameHandler_Join_ValidationErrors(t *testing.T) {
	handler := &GameHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{
			name: "empty body",
			body: nil,
		},
		{
			name: "missing display_name",
			body: map[string]string{"quiz_id": "0b7f8a7e-3e0f-4f3a-9a1e-5b2a6c8d9e01"},
		},
		{
			name: "quiz_id is not a uuid",
			body: map[string]string{"quiz_id": "не-uuid", "display_name": "Алиса"},
		},
		{
			name: "neither quiz_id nor pin",
			body: map[string]string{"display_name": "Алиса"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/game/join", tt.body)
			handler.Join(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseJSONResponse(t, w)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestGameHandler_SubmitAnswer_ValidationErrors(t *testing.T) {
	handler := &GameHandler{}

	validUUID := "0b7f8a7e-3e0f-4f3a-9a1e-5b2a6c8d9e01"
	tests := []struct {
		name string
		body interface{}
	}{
		{
			name: "empty body",
			body: nil,
		},
		{
			name: "missing selected_option",
			body: map[string]interface{}{
				"quiz_id":     validUUID,
				"player_id":   validUUID,
				"question_id": validUUID,
			},
		},
		{
			name: "player_id is not a uuid",
			body: map[string]interface{}{
				"quiz_id":         validUUID,
				"player_id":       "не-uuid",
				"question_id":     validUUID,
				"selected_option": 0,
			},
		},
		{
			name: "negative time_taken_ms",
			body: map[string]interface{}{
				"quiz_id":         validUUID,
				"player_id":       validUUID,
				"question_id":     validUUID,
				"selected_option": 0,
				"time_taken_ms":   -100,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/game/answer", tt.body)
			handler.SubmitAnswer(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGameHandler_SubmitAnswer_ZeroOptionPassesBinding(t *testing.T) {
	// Arrange: selected_option=0 - валидное значение, указатель в запросе
	// отличает его от отсутствующего поля. Binding пропускает запрос,
	// паника nil-сервиса перехватывается - значит валидация пройдена.
	handler := &GameHandler{}
	validUUID := "0b7f8a7e-3e0f-4f3a-9a1e-5b2a6c8d9e01"

	c, w := newTestGinContext("POST", "/api/game/answer", map[string]interface{}{
		"quiz_id":         validUUID,
		"player_id":       validUUID,
		"question_id":     validUUID,
		"selected_option": 0,
	})

	// Act
	func() {
		defer func() { _ = recover() }()
		handler.SubmitAnswer(c)
	}()

	// Assert: 400 не выставлен, запрос дошёл до сервисного слоя
	assert.NotEqual(t, http.StatusBadRequest, w.Code)
}

// ============================================================================
// Трансляция доменных ошибок в HTTP-статусы
// ============================================================================

func TestGameHandler_ErrorMapping(t *testing.T) {
	handler := &GameHandler{}

	tests := []struct {
		err           error
		wantStatus    int
		wantErrorType string
	}{
		{fmt.Errorf("quiz missing: %w", apperrors.ErrNotFound), http.StatusNotFound, ""},
		{fmt.Errorf("not in roster: %w", apperrors.ErrForbidden), http.StatusForbidden, ""},
		{fmt.Errorf("bad option: %w", apperrors.ErrValidation), http.StatusUnprocessableEntity, ""},
		{fmt.Errorf("name taken: %w", apperrors.ErrNameTaken), http.StatusConflict, "name_taken"},
		{fmt.Errorf("already answered: %w", apperrors.ErrDuplicateAnswer), http.StatusConflict, "duplicate_answer"},
		{fmt.Errorf("late answer: %w", apperrors.ErrStaleQuestion), http.StatusConflict, "stale_question"},
		{fmt.Errorf("quiz completed: %w", apperrors.ErrInvalidState), http.StatusConflict, "invalid_state"},
		{fmt.Errorf("lost race: %w", apperrors.ErrConflict), http.StatusConflict, "conflict"},
		{errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/game/answer", nil)

			// Act
			handler.handleGameError(c, tt.err)

			// Assert
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErrorType != "" {
				resp := parseJSONResponse(t, w)
				assert.Equal(t, tt.wantErrorType, resp["error_type"],
					"Причина 409 должна различаться полем error_type")
			}
		})
	}
}
