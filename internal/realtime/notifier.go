package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

const (
	seenCapacity   = 1024
	handleDeadline = 5 * time.Second
)

// Notifier turns committed store events into websocket frames. It is the only
// bus consumer in the process; the seen set keeps redelivered events from
// fanning out twice.
type Notifier struct {
	log          *logger.Logger
	hub          *Hub
	participants repos.ParticipantRepo
	messages     repos.MessageRepo

	mu       sync.Mutex
	seen     map[uuid.UUID]bool
	seenRing []uuid.UUID
	seenNext int
}

func NewNotifier(log *logger.Logger, hub *Hub, participants repos.ParticipantRepo, messages repos.MessageRepo) *Notifier {
	return &Notifier{
		log:          log.With("component", "Notifier"),
		hub:          hub,
		participants: participants,
		messages:     messages,
		seen:         make(map[uuid.UUID]bool, seenCapacity),
		seenRing:     make([]uuid.UUID, seenCapacity),
	}
}

// HandleEvent is the bus forwarder callback.
func (n *Notifier) HandleEvent(ev Event) {
	id := ev.ID()
	if id == uuid.Nil {
		n.log.Warn("bus event without id", "kind", ev.Kind)
		return
	}
	if n.markSeen(id) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleDeadline)
	defer cancel()

	switch ev.Kind {
	case EventMessageCreated:
		if ev.Message != nil {
			n.onMessageCreated(ctx, ev.Message)
		}
	case EventChatCreated:
		if ev.Chat != nil {
			n.onChatCreated(ctx, ev.Chat)
		}
	default:
		n.log.Warn("unknown bus event kind", "kind", ev.Kind)
	}
}

// markSeen reports whether the id was already recorded. The ring evicts the
// oldest entry once the set is full.
func (n *Notifier) markSeen(id uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.seen[id] {
		return true
	}
	if old := n.seenRing[n.seenNext]; old != uuid.Nil {
		delete(n.seen, old)
	}
	n.seenRing[n.seenNext] = id
	n.seenNext = (n.seenNext + 1) % seenCapacity
	n.seen[id] = true
	return false
}

func (n *Notifier) onMessageCreated(ctx context.Context, msg *chat.Message) {
	n.hub.Broadcast(ChatChannel(msg.ChatID), Frame{
		Event: "message:new:" + msg.ChatID.String(),
		Data:  msg,
	})

	parts, err := n.participants.ListByChat(ctx, nil, msg.ChatID)
	if err != nil {
		n.log.Error("list participants for fanout", "chatID", msg.ChatID, "error", err)
		return
	}

	touch := Frame{
		Event: "chat:touch",
		Data: map[string]any{
			"chatId":        msg.ChatID,
			"lastMessageAt": msg.CreatedAt,
			"lastMessageId": msg.ID,
		},
	}

	for _, p := range parts {
		// Unread is recomputed per recipient from their own watermark, so two
		// recipients of the same message can see different counts.
		unread, err := n.messages.CountAfter(ctx, nil, msg.ChatID, p.LastReadAt)
		if err != nil {
			n.log.Error("count unread for fanout", "chatID", msg.ChatID, "userID", p.UserID, "error", err)
			continue
		}
		userCh := UserChannel(p.UserID)
		n.hub.Broadcast(userCh, Frame{
			Event: "chat:list:update",
			Data: map[string]any{
				"type": "upsert",
				"chat": map[string]any{
					"_id":           msg.ChatID,
					"lastMessageAt": msg.CreatedAt,
					"lastMessage":   msg,
					"unreadCount":   unread,
				},
			},
		})
		n.hub.Broadcast(userCh, touch)
	}
}

func (n *Notifier) onChatCreated(ctx context.Context, c *chat.Chat) {
	parts, err := n.participants.ListByChat(ctx, nil, c.ID)
	if err != nil {
		n.log.Error("list participants for chat-created fanout", "chatID", c.ID, "error", err)
		return
	}
	f := Frame{Event: "chat:new", Data: map[string]any{"chatId": c.ID, "chat": c}}
	for _, p := range parts {
		n.hub.Broadcast(UserChannel(p.UserID), f)
	}
}
