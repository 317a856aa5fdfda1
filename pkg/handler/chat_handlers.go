package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/datasage-ai/datasage/pkg/service"
)

// ChatHandler handles conversation API requests
type ChatHandler struct {
	chatService  *service.ChatService
	defaultModel string
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService *service.ChatService, defaultModel string) *ChatHandler {
	return &ChatHandler{
		chatService:  chatService,
		defaultModel: defaultModel,
	}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r *gin.RouterGroup) {
	chat := r.Group("/chat")
	{
		chat.POST("/messages", h.SendMessage)
		chat.GET("/messages", h.History)
		chat.DELETE("/messages", h.Clear)
		chat.GET("/export", h.Export)
	}
}

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
	Model   string `json:"model"`
}

// SendMessage routes one user message through the engine
// @Summary Send chat message
// @Tags chat
// @Accept json
// @Produce json
// @Router /chat/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parameters: " + err.Error()})
		return
	}
	if req.Model == "" {
		req.Model = h.defaultModel
	}

	reply, err := h.chatService.ProcessMessage(c.Request.Context(), req.Message, req.Model)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": reply})
}

// History returns the transcript
func (h *ChatHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.chatService.History()})
}

// Clear drops the transcript
func (h *ChatHandler) Clear(c *gin.Context) {
	h.chatService.Clear()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// Export downloads the transcript as plain text
func (h *ChatHandler) Export(c *gin.Context) {
	fileName := fmt.Sprintf("chat_export_%s.txt", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(h.chatService.Export()))
}
