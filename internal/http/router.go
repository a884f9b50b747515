package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookcatalog/internal/apperr"
	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/logger"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	useWireFieldNames()

	router := gin.New()
	router.Use(requestLogging(log))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error().Interface("panic", recovered).Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: string(apperr.CodeInternal)})
	}))
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	requireAuth := auth.NewMiddleware(cfg.AuthService).RequireAuth()

	health := NewHealthController(cfg.Database, cfg.TaskQueue, cfg.Version)
	router.GET("/health", health.Status)

	authController := NewAuthController(cfg.AuthService, cfg.LoginGuard)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authController.Signup)
		authGroup.POST("/login", authController.Login)
		authGroup.GET("/me", requireAuth, authController.Me)
		authGroup.GET("/ping", authController.Ping)
	}

	booksController := NewBooksController(cfg.Books, cfg.TaskQueue)
	bookGroup := router.Group("/book")
	{
		bookGroup.GET("", requireAuth, booksController.List)
		bookGroup.POST("", booksController.Create)
		bookGroup.GET("/popular", booksController.Popular)
		bookGroup.GET("/recommend", booksController.Recommend)
		bookGroup.GET("/categories", booksController.Categories)
		bookGroup.POST("/categories/rebuild", requireAuth, booksController.RebuildCategories)
		bookGroup.GET("/detail", booksController.Detail)
		bookGroup.GET("/text", booksController.Text)
		bookGroup.GET("/search", booksController.Search)
		bookGroup.GET("/category", booksController.ByCategory)
	}

	reviewsController := NewReviewsController(cfg.Reviews)
	reviewGroup := router.Group("/review", requireAuth)
	{
		reviewGroup.GET("", reviewsController.List)
		reviewGroup.POST("", reviewsController.Create)
	}

	historyController := NewHistoryController(cfg.History)
	historyGroup := router.Group("/history", requireAuth)
	{
		historyGroup.GET("", historyController.List)
		historyGroup.POST("", historyController.Create)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		router.GET("/tasks/:id", requireAuth, tasksController.GetTaskStatus)
	}

	return router
}
