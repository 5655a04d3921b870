package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/ctxutil"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/realtime"
	"github.com/adopaw/adopaw-backend/internal/services"
)

const (
	wsWriteWait     = 10 * time.Second
	wsPongWait      = 60 * time.Second
	wsPingPeriod    = 54 * time.Second
	wsMaxFrameBytes = 64 << 10
	wsActionTimeout = 10 * time.Second
)

// inboundFrame is the client-to-server wire shape. AckID is set when the
// client wants a delivery receipt for the action.
type inboundFrame struct {
	Action string          `json:"action"`
	AckID  string          `json:"ackId,omitempty"`
	Data   json.RawMessage `json:"data"`
}

type WSHandler struct {
	log       *logger.Logger
	hub       *realtime.Hub
	directory services.DirectoryService
	messages  services.MessageService
	unread    services.UnreadService
	upgrader  websocket.Upgrader
}

func NewWSHandler(
	log *logger.Logger,
	hub *realtime.Hub,
	directory services.DirectoryService,
	messages services.MessageService,
	unread services.UnreadService,
) *WSHandler {
	return &WSHandler{
		log:       log.With("handler", "WSHandler"),
		hub:       hub,
		directory: directory,
		messages:  messages,
		unread:    unread,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin filtering happens in the CORS layer; the socket endpoint
			// is token-authenticated.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// GET /chat-api/socket
func (h *WSHandler) Serve(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "unauthenticated", "code": "unauthorized"}})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := h.hub.NewClient(rd.UserID)
	// Every connection listens on its user channel from the first frame.
	h.hub.Subscribe(client, realtime.UserChannel(rd.UserID))
	h.log.Info("socket connected", "userID", rd.UserID, "clientID", client.ID)

	go h.writePump(conn, client)
	h.readPump(conn, client)
}

func (h *WSHandler) writePump(conn *websocket.Conn, client *realtime.Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case f, ok := <-client.Outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) readPump(conn *websocket.Conn, client *realtime.Client) {
	defer func() {
		h.hub.Remove(client)
		_ = conn.Close()
		h.log.Info("socket disconnected", "userID", client.UserID, "clientID", client.ID)
	}()

	conn.SetReadLimit(wsMaxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("socket read error", "clientID", client.ID, "error", err)
			}
			return
		}

		var f inboundFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			h.log.Warn("bad socket frame", "clientID", client.ID, "error", err)
			continue
		}
		h.dispatch(client, f)
	}
}

func (h *WSHandler) dispatch(client *realtime.Client, f inboundFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), wsActionTimeout)
	defer cancel()

	switch f.Action {
	case "chat:join":
		h.onJoin(ctx, client, f.Data)
	case "chat:leave":
		h.onLeave(client, f.Data)
	case "typing":
		h.onTyping(client, f.Data)
	case "message:send":
		h.onSend(ctx, client, f)
	case "read":
		h.onRead(ctx, client, f.Data)
	default:
		h.log.Warn("unknown socket action", "action", f.Action, "clientID", client.ID)
	}
}

func (h *WSHandler) onJoin(ctx context.Context, client *realtime.Client, data json.RawMessage) {
	var req struct {
		ChatID uuid.UUID `json:"chatId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == uuid.Nil {
		return
	}
	ok, err := h.directory.IsParticipant(ctx, req.ChatID, client.UserID)
	if err != nil {
		h.log.Error("join membership check failed", "chatID", req.ChatID, "error", err)
		return
	}
	if !ok {
		h.log.Warn("join refused for non-participant", "chatID", req.ChatID, "userID", client.UserID)
		return
	}
	h.hub.Subscribe(client, realtime.ChatChannel(req.ChatID))
}

func (h *WSHandler) onLeave(client *realtime.Client, data json.RawMessage) {
	var req struct {
		ChatID uuid.UUID `json:"chatId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == uuid.Nil {
		return
	}
	h.hub.Unsubscribe(client, realtime.ChatChannel(req.ChatID))
}

func (h *WSHandler) onTyping(client *realtime.Client, data json.RawMessage) {
	var req struct {
		ChatID   uuid.UUID `json:"chatId"`
		IsTyping bool      `json:"isTyping"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == uuid.Nil {
		return
	}
	// Ephemeral: no persistence, no echo to the sender's own connection.
	h.hub.BroadcastExcept(realtime.ChatChannel(req.ChatID), client.ID, realtime.Frame{
		Event: "typing:" + req.ChatID.String(),
		Data: gin.H{
			"chatId":   req.ChatID,
			"userId":   client.UserID,
			"isTyping": req.IsTyping,
			"at":       time.Now().UnixMilli(),
		},
	})
}

func (h *WSHandler) onSend(ctx context.Context, client *realtime.Client, f inboundFrame) {
	var req struct {
		ChatID  uuid.UUID `json:"chatId"`
		Type    string    `json:"type"`
		Content struct {
			Text     string `json:"text"`
			ImageURL string `json:"imageUrl"`
		} `json:"content"`
		ClientID string `json:"clientId"`
	}
	if err := json.Unmarshal(f.Data, &req); err != nil {
		h.ack(client, f.AckID, false, "", "invalid_request")
		return
	}

	msg, err := h.messages.Append(ctx, client.UserID, services.AppendInput{
		ChatID:   req.ChatID,
		Type:     req.Type,
		Content:  chatContent(req.Content.Text, req.Content.ImageURL),
		ClientID: req.ClientID,
	})
	if err != nil {
		code := "internal_error"
		var ae *apierr.Error
		if errors.As(err, &ae) {
			code = ae.Code
		}
		h.ack(client, f.AckID, false, "", code)
		return
	}
	// The broadcast itself arrives via the notifier; the ack only confirms
	// the write.
	h.ack(client, f.AckID, true, msg.ID.String(), "")
}

func (h *WSHandler) onRead(ctx context.Context, client *realtime.Client, data json.RawMessage) {
	var req struct {
		ChatID    uuid.UUID  `json:"chatId"`
		MessageID *uuid.UUID `json:"messageId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == uuid.Nil {
		return
	}

	readAt, err := h.unread.MarkRead(ctx, req.ChatID, client.UserID, req.MessageID)
	if err != nil {
		h.log.Warn("mark read failed", "chatID", req.ChatID, "userID", client.UserID, "error", err)
		return
	}

	h.hub.BroadcastExcept(realtime.ChatChannel(req.ChatID), client.ID, realtime.Frame{
		Event: "message:read:" + req.ChatID.String(),
		Data: gin.H{
			"chatId":    req.ChatID,
			"messageId": req.MessageID,
			"userId":    client.UserID,
			"readAt":    readAt.UnixMilli(),
		},
	})

	// Collapse the badge on the reader's other devices too.
	h.hub.Broadcast(realtime.UserChannel(client.UserID), realtime.Frame{
		Event: "chat:list:update",
		Data: gin.H{
			"type": "upsert",
			"chat": gin.H{
				"_id":         req.ChatID,
				"unreadCount": 0,
			},
		},
	})
}

func (h *WSHandler) ack(client *realtime.Client, ackID string, ok bool, msgID, errCode string) {
	if ackID == "" {
		return
	}
	data := gin.H{"ackId": ackID, "ok": ok}
	if msgID != "" {
		data["_id"] = msgID
	}
	if errCode != "" {
		data["error"] = errCode
	}
	select {
	case client.Outbound <- realtime.Frame{Event: "ack", Data: data}:
	default:
		h.log.Warn("dropping ack; outbound buffer full", "clientID", client.ID)
	}
}
