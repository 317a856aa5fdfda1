package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/datasage-ai/datasage/pkg/models"
	"github.com/datasage-ai/datasage/pkg/service"
)

// UsageHandler handles token accounting and model registry requests
type UsageHandler struct {
	tracker      *service.TokenTracker
	modelService *service.ModelService
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(tracker *service.TokenTracker, modelService *service.ModelService) *UsageHandler {
	return &UsageHandler{tracker: tracker, modelService: modelService}
}

// RegisterRoutes registers usage and model routes
func (h *UsageHandler) RegisterRoutes(r *gin.RouterGroup) {
	usage := r.Group("/usage")
	{
		usage.GET("", h.Summary)
		usage.GET("/records", h.Records)
		usage.POST("/reset", h.ResetSession)
		usage.GET("/pricing", h.PricingInfo)
		usage.POST("/pricing/refresh", h.RefreshPricing)
	}

	modelRoutes := r.Group("/models")
	{
		modelRoutes.GET("", h.ListModels)
		modelRoutes.POST("/test", h.TestModel)
	}
}

// Summary returns session and lifetime totals
func (h *UsageHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Summary())
}

// Records returns the bounded usage history
func (h *UsageHandler) Records(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"records": h.tracker.Records()})
}

// ResetSession zeroes session counters
func (h *UsageHandler) ResetSession(c *gin.Context) {
	h.tracker.ResetSession()
	c.JSON(http.StatusOK, h.tracker.Summary())
}

// PricingInfo describes the active price table
func (h *UsageHandler) PricingInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.PricingInfo())
}

// RefreshPricing reloads the pricing file
func (h *UsageHandler) RefreshPricing(c *gin.Context) {
	if err := h.tracker.RefreshPrices(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.tracker.PricingInfo())
}

// ListModels returns the model registry with masked keys
func (h *UsageHandler) ListModels(c *gin.Context) {
	configs, err := h.modelService.ListModels()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": configs})
}

// TestModel checks connectivity for one model configuration
func (h *UsageHandler) TestModel(c *gin.Context) {
	var config models.ModelConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parameters: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	if err := h.modelService.TestModelConnection(ctx, &config); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Connection successful"})
}
