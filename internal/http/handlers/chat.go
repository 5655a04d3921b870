package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/http/response"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/ctxutil"
	"github.com/adopaw/adopaw-backend/internal/realtime"
	"github.com/adopaw/adopaw-backend/internal/services"
)

func chatContent(text, imageURL string) chat.MessageContent {
	return chat.MessageContent{Text: text, ImageURL: imageURL}
}

type ChatHandler struct {
	directory services.DirectoryService
	messages  services.MessageService
	unread    services.UnreadService
	hub       *realtime.Hub
}

func NewChatHandler(
	directory services.DirectoryService,
	messages services.MessageService,
	unread services.UnreadService,
	hub *realtime.Hub,
) *ChatHandler {
	return &ChatHandler{
		directory: directory,
		messages:  messages,
		unread:    unread,
		hub:       hub,
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondAPIError(c, apierr.Unauthorized(fmt.Errorf("unauthenticated")))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

// POST /chat-api/ensure-chat
// body: { participants: [uuid...], petId? } or the older { otherUserId, petId? }
func (h *ChatHandler) EnsureChat(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Participants []uuid.UUID `json:"participants"`
		OtherUserID  *uuid.UUID  `json:"otherUserId"`
		PetID        *uuid.UUID  `json:"petId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}

	others := req.Participants
	if req.OtherUserID != nil {
		others = append(others, *req.OtherUserID)
	}

	chatRow, created, err := h.directory.Ensure(c.Request.Context(), me, others, req.PetID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chatId": chatRow.ID, "created": created})
}

// GET /chat-api/my-chats
func (h *ChatHandler) MyChats(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	items, err := h.directory.ListForUser(c.Request.Context(), me)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// GET /chat-api/chats/:id/messages?limit&cursorTs&cursorId
func (h *ChatHandler) GetMessages(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	chatID, ok := parseParamID(c, "id")
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	var cursor *services.Cursor
	if tsStr, idStr := c.Query("cursorTs"), c.Query("cursorId"); tsStr != "" && idStr != "" {
		ts, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			response.RespondAPIError(c, apierr.BadRequest("invalid_cursor", fmt.Errorf("invalid cursorTs")))
			return
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			response.RespondAPIError(c, apierr.BadRequest("invalid_cursor", fmt.Errorf("invalid cursorId")))
			return
		}
		cursor = &services.Cursor{Ts: ts, ID: id}
	}

	items, next, err := h.messages.Page(c.Request.Context(), chatID, me, limit, cursor)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items, "nextCursor": next})
}

// POST /chat-api/chats/:id/messages
// body: { type?, content, clientId? }
func (h *ChatHandler) PostMessage(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	chatID, ok := parseParamID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Type     string `json:"type"`
		Content  struct {
			Text     string `json:"text"`
			ImageURL string `json:"imageUrl"`
		} `json:"content"`
		ClientID string `json:"clientId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_request", err))
		return
	}

	msg, err := h.messages.Append(c.Request.Context(), me, services.AppendInput{
		ChatID:   chatID,
		Type:     req.Type,
		Content:  chatContent(req.Content.Text, req.Content.ImageURL),
		ClientID: req.ClientID,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, msg)
}

// POST /chat-api/chats/:id/read
// body: { messageId? }
func (h *ChatHandler) MarkRead(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	chatID, ok := parseParamID(c, "id")
	if !ok {
		return
	}

	var req struct {
		MessageID *uuid.UUID `json:"messageId"`
	}
	// Body is optional for watermark-only reads.
	_ = c.ShouldBindJSON(&req)

	if _, err := h.unread.MarkRead(c.Request.Context(), chatID, me, req.MessageID); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	// Collapse the caller's own badge right away; other participants are
	// untouched.
	if chatRow, last, err := h.directory.Preview(c.Request.Context(), chatID, me); err == nil {
		h.hub.Broadcast(realtime.UserChannel(me), realtime.Frame{
			Event: "chat:list:update",
			Data: gin.H{
				"type": "upsert",
				"chat": gin.H{
					"_id":           chatRow.ID,
					"lastMessageAt": chatRow.LastMessageAt,
					"lastMessage":   last,
					"unreadCount":   0,
				},
			},
		})
	}

	response.RespondOK(c, gin.H{"ok": true})
}
