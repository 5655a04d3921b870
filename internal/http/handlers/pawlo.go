package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/adopaw/adopaw-backend/internal/http/response"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/services"
)

type PawloHandler struct {
	assistant services.AssistantService
}

func NewPawloHandler(assistant services.AssistantService) *PawloHandler {
	return &PawloHandler{assistant: assistant}
}

// POST /chat-api/pawlo/reply
// body: { message?, history?, imageUrls? }
func (h *PawloHandler) Reply(c *gin.Context) {
	var req struct {
		Message   string                 `json:"message"`
		History   []services.HistoryTurn `json:"history"`
		ImageURLs []string               `json:"imageUrls"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}

	reply, err := h.assistant.Reply(c.Request.Context(), services.ReplyInput{
		Message:   req.Message,
		History:   req.History,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reply": reply})
}
