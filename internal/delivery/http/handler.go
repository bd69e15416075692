package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/usecase"
	"go.uber.org/zap"
)

// Version is reported by the health check
const Version = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	extractor usecase.MenuExtractor
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler. A nil extractor makes the extract
// endpoint answer 503.
func NewHandler(extractor usecase.MenuExtractor, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{extractor: extractor, logger: logger.Named("http")}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "menulens",
		"version": Version,
	})
}

// ExtractMenu runs the extraction pipeline for one restaurant. Pipeline
// failures are reported inside the result, so any well-formed request
// gets a 200.
func (h *Handler) ExtractMenu(c *gin.Context) {
	if h.extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "menu extraction not configured"})
		return
	}

	var desc domain.RestaurantDescriptor
	if err := c.ShouldBindJSON(&desc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result := h.extractor.Extract(c.Request.Context(), desc)
	h.logger.Info("menu extracted",
		zap.String("restaurant_id", result.RestaurantID),
		zap.String("run_id", result.RunID),
		zap.Bool("success", result.Success),
		zap.Int("items", result.ItemCount))

	c.JSON(http.StatusOK, result)
}
