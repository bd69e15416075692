package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/macrolens/menulens/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router. metrics may be nil,
// in which case /metrics is not served.
func SetupRouter(cfg *config.Config, handler *Handler, metrics http.Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		menus := v1.Group("/menus")
		{
			menus.POST("/extract", handler.ExtractMenu)
		}
	}

	return router
}
