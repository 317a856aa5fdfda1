package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datasage-ai/datasage/pkg/service"
)

// DatabaseHandler handles SQL connection management requests
type DatabaseHandler struct {
	databaseService *service.DatabaseService
}

// NewDatabaseHandler creates a new DatabaseHandler
func NewDatabaseHandler(databaseService *service.DatabaseService) *DatabaseHandler {
	return &DatabaseHandler{databaseService: databaseService}
}

// RegisterRoutes registers database routes
func (h *DatabaseHandler) RegisterRoutes(r *gin.RouterGroup) {
	database := r.Group("/database")
	{
		database.POST("/connect", h.Connect)
		database.POST("/disconnect", h.Disconnect)
		database.POST("/test", h.Test)
		database.GET("/status", h.Status)
		database.GET("/schema", h.Schema)
		database.POST("/schema/refresh", h.RefreshSchema)
		database.GET("/tables/:name/preview", h.Preview)
	}
}

// Connect establishes the active connection
// @Summary Connect to database
// @Tags database
// @Accept json
// @Produce json
// @Router /database/connect [post]
func (h *DatabaseHandler) Connect(c *gin.Context) {
	var params service.ConnectionParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parameters: " + err.Error()})
		return
	}

	catalog, err := h.databaseService.Connect(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedDriver) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "schema": catalog})
}

// Disconnect closes the active connection
func (h *DatabaseHandler) Disconnect(c *gin.Context) {
	h.databaseService.Disconnect()
	c.JSON(http.StatusOK, gin.H{"connected": false})
}

// Test pings with the given parameters without connecting
func (h *DatabaseHandler) Test(c *gin.Context) {
	var params service.ConnectionParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parameters: " + err.Error()})
		return
	}

	if err := h.databaseService.TestConnection(c.Request.Context(), params); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Connection successful"})
}

// Status reports the connection state
func (h *DatabaseHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.databaseService.Status())
}

// Schema returns the introspected catalog
func (h *DatabaseHandler) Schema(c *gin.Context) {
	catalog, err := h.databaseService.Catalog()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schema": catalog})
}

// RefreshSchema re-introspects the connected database
func (h *DatabaseHandler) RefreshSchema(c *gin.Context) {
	catalog, err := h.databaseService.RefreshCatalog(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotConnected) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schema": catalog})
}

// Preview returns the first rows of one table
func (h *DatabaseHandler) Preview(c *gin.Context) {
	table, err := h.databaseService.Preview(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, service.ErrNotConnected) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": table})
}
