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

	"github.com/yourusername/quizhost-api/internal/config"
	"github.com/yourusername/quizhost-api/internal/handler"
	"github.com/yourusername/quizhost-api/internal/middleware"
	pgRepo "github.com/yourusername/quizhost-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizhost-api/internal/repository/redis"
	"github.com/yourusername/quizhost-api/internal/service"
	"github.com/yourusername/quizhost-api/pkg/auth"
	"github.com/yourusername/quizhost-api/pkg/auth/manager"
	"github.com/yourusername/quizhost-api/pkg/database"
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
	userRepo := pgRepo.NewUserRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// --- Инициализация JWTService и TokenManager ---
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	tokenManager := manager.NewTokenManager(time.Duration(cfg.JWT.ExpirationHrs) * time.Hour)

	isProduction := gin.Mode() == gin.ReleaseMode
	tokenManager.SetProductionMode(isProduction)

	sameSitePolicy := http.SameSiteLaxMode
	if isProduction {
		// None требует Secure=true, что выполняется в проде
		sameSitePolicy = http.SameSiteNoneMode
	}
	tokenManager.SetCookieAttributes("/", "", isProduction, true, sameSitePolicy)

	// --- Инициализация сервисов ---
	authService := service.NewAuthService(userRepo, jwtService)
	quizService := service.NewQuizService(
		quizRepo,
		questionRepo,
		cacheRepo,
		cfg.Quiz.MissingQuestionPolicy,
		time.Duration(cfg.Quiz.ViewCacheTTLSec)*time.Second,
	)

	// --- Инициализация обработчиков и middleware ---
	authHandler := handler.NewAuthHandler(authService, tokenManager, cfg.JWT.ExpirationHrs)
	quizHandler := handler.NewQuizHandler(quizService)

	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokenManager, authService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()))
		{
			strict := rateLimiter.Limit(middleware.StrictAuthRateLimitConfig())
			authGroup.POST("/register", strict, authHandler.Register)
			authGroup.POST("/login", strict, authHandler.Login)
			authGroup.POST("/logout", authMiddleware.RequireAuth(), authHandler.Logout)
		}

		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", authHandler.Me)
		}

		quizzes := api.Group("/quizzes")
		{
			quizzes.GET("", authMiddleware.OptionalAuth(), quizHandler.ListQuizzes)
			quizzes.POST("", authMiddleware.RequireAuth(), quizHandler.CreateQuiz)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractStringParam("id", "quizID"))
			{
				quizWithID.GET("", authMiddleware.OptionalAuth(), quizHandler.GetQuiz)
				quizWithID.POST("/check", authMiddleware.OptionalAuth(), quizHandler.CheckAnswers)
				quizWithID.GET("/export", authMiddleware.RequireAuth(), quizHandler.ExportQuizQuestions)
			}
		}

		api.POST("/questions", authMiddleware.RequireAuth(), quizHandler.CreateQuestion)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
