package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adopaw/adopaw-backend/internal/http/response"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/services"
)

type CommentHandler struct {
	commentService services.CommentService
}

func NewCommentHandler(commentService services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func parseParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_id", err))
		return uuid.Nil, false
	}
	return id, true
}

// POST /comment
func (h *CommentHandler) Create(c *gin.Context) {
	var req struct {
		PetID    uuid.UUID `json:"petId"`
		AuthorID uuid.UUID `json:"authorId"`
		Text     string    `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}
	out, err := h.commentService.Create(c.Request.Context(), req.PetID, req.AuthorID, req.Text)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, out)
}

// GET /comment/:petId
func (h *CommentHandler) ListByPet(c *gin.Context) {
	petID, ok := parseParamID(c, "petId")
	if !ok {
		return
	}
	out, err := h.commentService.ListByPet(c.Request.Context(), petID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /comment/reply/:commentId
func (h *CommentHandler) AddReply(c *gin.Context) {
	commentID, ok := parseParamID(c, "commentId")
	if !ok {
		return
	}
	var req struct {
		AuthorID uuid.UUID `json:"authorId"`
		Text     string    `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}
	out, err := h.commentService.AddReply(c.Request.Context(), commentID, req.AuthorID, req.Text)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PUT /comment/:commentId
func (h *CommentHandler) Edit(c *gin.Context) {
	commentID, ok := parseParamID(c, "commentId")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}
	out, err := h.commentService.Edit(c.Request.Context(), commentID, req.Text)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PUT /comment/:commentId/reply/:replyId
func (h *CommentHandler) EditReply(c *gin.Context) {
	commentID, ok := parseParamID(c, "commentId")
	if !ok {
		return
	}
	replyID, ok := parseParamID(c, "replyId")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}
	out, err := h.commentService.EditReply(c.Request.Context(), commentID, replyID, req.Text)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// DELETE /comment/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, ok := parseParamID(c, "commentId")
	if !ok {
		return
	}
	if err := h.commentService.Delete(c.Request.Context(), commentID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "comment deleted"})
}

// DELETE /comment/:commentId/reply/:replyId
func (h *CommentHandler) DeleteReply(c *gin.Context) {
	commentID, ok := parseParamID(c, "commentId")
	if !ok {
		return
	}
	replyID, ok := parseParamID(c, "replyId")
	if !ok {
		return
	}
	out, err := h.commentService.DeleteReply(c.Request.Context(), commentID, replyID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "reply deleted", "comment": out})
}
