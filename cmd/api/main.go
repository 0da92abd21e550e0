package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizpin-api/internal/config"
	"github.com/yourusername/quizpin-api/internal/handler"
	"github.com/yourusername/quizpin-api/internal/middleware"
	pgRepo "github.com/yourusername/quizpin-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizpin-api/internal/repository/redis"
	"github.com/yourusername/quizpin-api/internal/service"
	ws "github.com/yourusername/quizpin-api/internal/websocket"
	"github.com/yourusername/quizpin-api/pkg/auth"
	"github.com/yourusername/quizpin-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	hostRepo := pgRepo.NewHostRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	playerRepo := pgRepo.NewPlayerRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализация WebSocket: Pub/Sub провайдер нужен только в кластерном режиме
	var pubSubProvider ws.PubSubProvider
	if cfg.WebSocket.Cluster.Enabled {
		pubSubProvider, err = ws.NewRedisPubSub(redisClient)
		if err != nil {
			log.Printf("Failed to initialize RedisPubSub: %v", err)
			os.Exit(1)
		}
	} else {
		pubSubProvider = &ws.NoOpPubSub{}
	}

	wsHub := ws.NewHub(cfg.WebSocket.Cluster, pubSubProvider)
	go wsHub.Run()
	wsManager := ws.NewManager(wsHub)

	// Инициализируем сервисы
	quizService := service.NewQuizService(quizRepo, questionRepo, cacheRepo, cfg.Game)
	leaderboardService := service.NewLeaderboardService(quizRepo, playerRepo, answerRepo, cacheRepo)
	sessionService := service.NewSessionService(quizRepo, questionRepo, leaderboardService, quizService, wsManager)
	rosterService := service.NewRosterService(quizRepo, playerRepo, wsManager)
	answerService := service.NewAnswerService(quizRepo, questionRepo, playerRepo, answerRepo, wsManager)
	authService := service.NewAuthService(hostRepo, jwtService)

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	quizHandler := handler.NewQuizHandler(quizService, sessionService, rosterService, leaderboardService, authService)
	gameHandler := handler.NewGameHandler(quizService, rosterService, answerService)
	wsHandler := handler.NewWSHandler(wsHub, wsManager, quizService, playerRepo, jwtService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		// Production: не доверять прокси-заголовкам.
		// При деплое за load balancer добавьте его IP вместо nil.
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация хостов
		authGroup := api.Group("/auth")
		{
			strictLimit := rateLimiter.Limit(middleware.StrictAuthRateLimitConfig())
			authGroup.POST("/register", strictLimit, authHandler.Register)
			authGroup.POST("/login", strictLimit, authHandler.Login)
			authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
		}

		// Викторины
		quizzes := api.Group("/quizzes")
		{
			quizzes.GET("", quizHandler.ListQuizzes)
			quizzes.POST("", authMiddleware.RequireAuth(), quizHandler.CreateQuiz)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUUIDParam("id", "quizID"))
			{
				quizWithID.GET("", authMiddleware.OptionalAuth(), quizHandler.GetQuiz)
				quizWithID.GET("/players", quizHandler.GetPlayers)
				quizWithID.GET("/leaderboard", quizHandler.GetLeaderboard)

				// Маршруты хоста
				hostQuiz := quizWithID.Group("")
				hostQuiz.Use(authMiddleware.RequireAuth())
				{
					hostQuiz.DELETE("", quizHandler.DeleteQuiz)
					hostQuiz.POST("/questions", quizHandler.AddQuestion)
					hostQuiz.POST("/start", quizHandler.StartSession)
					hostQuiz.POST("/advance", quizHandler.AdvanceSession)
					hostQuiz.GET("/leaderboard/export", quizHandler.ExportLeaderboard)

					questionWithID := hostQuiz.Group("/questions/:questionID")
					questionWithID.Use(middleware.ExtractUUIDParam("questionID", "questionID"))
					{
						questionWithID.PUT("", quizHandler.UpdateQuestion)
						questionWithID.DELETE("", quizHandler.DeleteQuestion)
					}
				}
			}
		}

		// Глобальный лидерборд (публичный маршрут)
		api.GET("/leaderboard/global", quizHandler.GetGlobalLeaderboard)

		// Игровые маршруты (публичные, с rate limiting)
		game := api.Group("/game")
		game.Use(rateLimiter.Limit(middleware.GameRateLimitConfig(cfg.Game.JoinRateLimit)))
		{
			game.POST("/resolve-pin", gameHandler.ResolvePin)
			game.POST("/join", gameHandler.Join)
			game.POST("/answer", gameHandler.SubmitAnswer)
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	readTimeout := cfg.Server.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15
	}
	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 15
	}
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// Ждем сигнала остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	wsHub.Stop()
	if err := pubSubProvider.Close(); err != nil {
		log.Printf("Error closing PubSub provider: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
