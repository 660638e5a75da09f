package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"studyai-backend/internal/ai"
	appsvc "studyai-backend/internal/app"
	"studyai-backend/internal/bootstrap"
	"studyai-backend/internal/cache"
	"studyai-backend/internal/index"
	"studyai-backend/internal/pkg/keymutex"
	"studyai-backend/internal/platform/rabbitmq"
	"studyai-backend/internal/repository"
	"studyai-backend/internal/transport/http/handler"
	"studyai-backend/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = app.Config.MaxUploadBytes()

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	flashcardRepo := repository.NewFlashcardRepository(app.MySQL)
	quizRepo := repository.NewQuizRepository(app.MySQL)

	llmClient := ai.NewClient(ai.Config{
		BaseURL:        app.Config.LLM.BaseURL,
		APIKey:         app.Config.LLM.APIKey,
		ChatModel:      app.Config.LLM.Model,
		EmbeddingModel: app.Config.LLM.EmbeddingModel,
	})
	builder := index.NewBuilder(
		llmClient,
		app.Config.Study.ChunkSize,
		app.Config.Study.ChunkOverlap,
		app.Config.Study.EmbedBatchSize,
	)
	answerCache := cache.NewAnswerCache(
		app.Redis,
		time.Duration(app.Config.Redis.AnswerTTLSeconds)*time.Second,
	)
	activityPublisher := rabbitmq.NewActivityPublisher(app.MQConn, app.Config.RabbitMQ.ActivityPersistQueue)
	docLocks := keymutex.New()

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	docService := appsvc.NewDocumentService(
		docRepo,
		builder,
		docLocks,
		answerCache,
		activityPublisher,
		app.Config.Storage.UploadRoot,
		app.Config.Storage.DataRoot,
	)
	studyService := appsvc.NewStudyService(
		docRepo,
		flashcardRepo,
		quizRepo,
		llmClient,
		llmClient,
		answerCache,
		activityPublisher,
		docLocks,
		app.Config.Storage.DataRoot,
		app.Config.Study.QueryTopK,
		app.Config.Study.GenerateTopK,
	)

	activityService := appsvc.NewActivityService(repository.NewActivityRepository(app.MySQL))

	authHandler := handler.NewAuthHandler(authService)
	activityHandler := handler.NewActivityHandler(activityService)
	docHandler := handler.NewDocumentHandler(docService, app.Config.MaxUploadBytes())
	studyHandler := handler.NewStudyHandler(studyService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	docs := v1.Group("/documents")
	docs.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	docs.GET("", docHandler.List)
	docs.POST("", docHandler.Upload)
	docs.GET("/:id", docHandler.Get)
	docs.DELETE("/:id", docHandler.Delete)
	docs.POST("/:id/query", studyHandler.Query)
	docs.GET("/:id/flashcards", studyHandler.GetFlashcards)
	docs.POST("/:id/flashcards", studyHandler.RegenerateFlashcards)
	docs.GET("/:id/quiz", studyHandler.GetQuiz)
	docs.POST("/:id/quiz", studyHandler.RegenerateQuiz)
	docs.POST("/:id/quiz/submit", studyHandler.SubmitQuiz)

	v1.GET("/activity", middleware.AuthJWT(app.Config.Auth.JWTSecret), activityHandler.Recent)

	return router
}
