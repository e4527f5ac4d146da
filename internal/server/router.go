package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lucavoss/adeptly-backend/internal/http/handlers"
	"github.com/lucavoss/adeptly-backend/internal/http/middleware"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log                   *logger.Logger
	HealthHandler         *handlers.HealthHandler
	SessionHandler        *handlers.SessionHandler
	SuggestionHandler     *handlers.SuggestionHandler
	RecommendationHandler *handlers.RecommendationHandler
	ProgressHandler       *handlers.ProgressHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(otelgin.Middleware("adeptly-backend"))
	router.Use(middleware.AttachTraceContext())
	router.Use(middleware.RequestLogger(cfg.Log))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api/v1")
	{
		// Sessions
		api.POST("/sessions", cfg.SessionHandler.Start)
		api.GET("/sessions/:id", cfg.SessionHandler.Get)
		api.POST("/sessions/:id/submit", cfg.SessionHandler.Submit)
		api.POST("/sessions/:id/pause", cfg.SessionHandler.Pause)
		api.POST("/sessions/:id/resume", cfg.SessionHandler.Resume)
		api.POST("/sessions/:id/abandon", cfg.SessionHandler.Abandon)

		// Suggestions and review
		api.GET("/students/:studentId/suggestions", cfg.SuggestionHandler.ListPending)
		api.POST("/suggestions/:id/review", cfg.SuggestionHandler.Review)

		// Recommendations
		api.POST("/recommendations/analyze", cfg.RecommendationHandler.Analyze)
		api.POST("/recommendations/batch", cfg.RecommendationHandler.BatchAnalyze)

		// Progress
		api.GET("/students/:studentId/subjects/:subject/progress", cfg.ProgressHandler.Get)
		api.GET("/students/:studentId/subjects/:subject/skills", cfg.ProgressHandler.Skills)
	}

	return router
}
