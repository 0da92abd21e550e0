package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/quizpin-api/internal/domain/repository"
	"github.com/yourusername/quizpin-api/internal/service"
	"github.com/yourusername/quizpin-api/internal/websocket"
	"github.com/yourusername/quizpin-api/pkg/auth"
)

// WSHandler обрабатывает WebSocket соединения живых сессий
type WSHandler struct {
	wsHub       *websocket.Hub
	wsManager   *websocket.Manager
	quizService *service.QuizService
	playerRepo  repository.PlayerRepository
	jwtService  *auth.JWTService
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(
	wsHub *websocket.Hub,
	wsManager *websocket.Manager,
	quizService *service.QuizService,
	playerRepo repository.PlayerRepository,
	jwtService *auth.JWTService,
) *WSHandler {
	handler := &WSHandler{
		wsHub:       wsHub,
		wsManager:   wsManager,
		quizService: quizService,
		playerRepo:  playerRepo,
		jwtService:  jwtService,
	}

	// Регистрируем обработчики сообщений один раз при создании обработчика
	handler.registerMessageHandlers()

	return handler
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Пустой Origin - не браузерный клиент (мобильное приложение, curl и т.д.)
		if origin == "" {
			return true
		}

		// Список разрешенных origin (синхронизирован с CORS в main.go)
		allowedOrigins := []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://localhost:8000",
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
		return false
	},
	EnableCompression: true,
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// Клиент идентифицирует себя либо player_id (игрок ростера),
// либо JWT-токеном (хост викторины).
func (h *WSHandler) HandleConnection(c *gin.Context) {
	quizID := c.Query("quiz_id")
	if quizID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quiz_id query parameter is required"})
		return
	}

	quiz, err := h.quizService.GetQuizByID(quizID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}

	var userID string
	switch {
	case c.Query("player_id") != "":
		playerID := c.Query("player_id")
		player, err := h.playerRepo.GetByID(playerID)
		if err != nil || player.QuizID != quizID {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown player for this quiz"})
			return
		}
		userID = player.ID

	case c.Query("token") != "":
		claims, err := h.jwtService.ParseToken(c.Query("token"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if !quiz.IsHost(claims.HostID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the quiz host may watch this session"})
			return
		}
		userID = claims.HostID

	default:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "player_id or token query parameter is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket: error upgrading connection: %v", err)
		return
	}

	client := websocket.NewClient(h.wsHub, conn, userID)
	h.wsHub.RegisterClient(client)
	h.wsHub.SubscribeToQuiz(client, quizID)
	client.StartPumps(h.wsManager.HandleMessage)

	log.Printf("WebSocket: client %s connected to quiz %s", userID, quizID)
}

// registerMessageHandlers настраивает обработку клиентских сообщений
func (h *WSHandler) registerMessageHandlers() {
	h.wsManager.RegisterHandler("ping", func(data json.RawMessage, client *websocket.Client) error {
		return h.wsManager.SendEventToUser(client.UserID, "pong", gin.H{"quiz_id": client.GetQuizID()})
	})
}
