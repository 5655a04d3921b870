package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/realtime"
	"github.com/adopaw/adopaw-backend/internal/realtime/bus"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

const (
	defaultPageSize = 30
	maxPageSize     = 100
)

// Cursor marks the oldest row of a returned page. Ts is unix milliseconds;
// the id breaks ties between rows created in the same millisecond.
type Cursor struct {
	Ts int64     `json:"ts"`
	ID uuid.UUID `json:"id"`
}

type AppendInput struct {
	ChatID   uuid.UUID
	Role     string
	Type     string
	Content  chat.MessageContent
	ClientID string
}

type MessageService interface {
	// Append persists a message from sender and bumps the chat's last-message
	// pointer in the same transaction. Senders must be participants.
	Append(ctx context.Context, senderID uuid.UUID, in AppendInput) (*chat.Message, error)
	// Page returns up to limit messages newest-first, strictly older than the
	// cursor. A nil next cursor means history is exhausted.
	Page(ctx context.Context, chatID, userID uuid.UUID, limit int, cursor *Cursor) ([]*chat.Message, *Cursor, error)
}

type messageService struct {
	db           *gorm.DB
	log          *logger.Logger
	chatRepo     repos.ChatRepo
	participants repos.ParticipantRepo
	messages     repos.MessageRepo
	publisher    bus.Publisher
}

func NewMessageService(
	db *gorm.DB,
	log *logger.Logger,
	chatRepo repos.ChatRepo,
	participants repos.ParticipantRepo,
	messages repos.MessageRepo,
	publisher bus.Publisher,
) MessageService {
	return &messageService{
		db:           db,
		log:          log.With("service", "MessageService"),
		chatRepo:     chatRepo,
		participants: participants,
		messages:     messages,
		publisher:    publisher,
	}
}

func (ms *messageService) Append(ctx context.Context, senderID uuid.UUID, in AppendInput) (*chat.Message, error) {
	if in.ChatID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_chat_id", fmt.Errorf("missing chat id"))
	}

	p, err := ms.participants.Get(ctx, nil, in.ChatID, senderID)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("load participant: %w", err))
	}
	if p == nil {
		return nil, apierr.Forbidden(fmt.Errorf("user %s is not a participant of chat %s", senderID, in.ChatID))
	}

	msgType := in.Type
	if msgType == "" {
		msgType = chat.MessageTypeText
	}
	switch msgType {
	case chat.MessageTypeText:
		if in.Content.Text == "" {
			return nil, apierr.BadRequest("empty_message", fmt.Errorf("text message without text"))
		}
	case chat.MessageTypeImage, chat.MessageTypeFile:
		if in.Content.ImageURL == "" {
			return nil, apierr.BadRequest("empty_message", fmt.Errorf("%s message without url", msgType))
		}
	default:
		return nil, apierr.BadRequest("invalid_message_type", fmt.Errorf("unknown message type %q", msgType))
	}

	role := in.Role
	if role == "" {
		role = chat.MessageRoleUser
	}

	raw, err := json.Marshal(in.Content)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("encode content: %w", err))
	}

	// ClientID is stored verbatim for client-side reconciliation; duplicate
	// sends intentionally produce duplicate rows.
	msg := &chat.Message{
		ChatID:   in.ChatID,
		SenderID: senderID,
		Role:     role,
		Type:     msgType,
		Content:  datatypes.JSON(raw),
		ClientID: in.ClientID,
	}

	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if txErr := ms.messages.Create(ctx, tx, msg); txErr != nil {
			return fmt.Errorf("create message: %w", txErr)
		}
		if txErr := ms.chatRepo.UpdateLastMessage(ctx, tx, in.ChatID, msg.ID, msg.CreatedAt); txErr != nil {
			return fmt.Errorf("bump last message: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, apierr.Store(err)
	}

	if pubErr := ms.publisher.Publish(ctx, realtime.Event{Kind: realtime.EventMessageCreated, Message: msg}); pubErr != nil {
		ms.log.Warn("publish message-created", "chatID", in.ChatID, "messageID", msg.ID, "error", pubErr)
	}
	return msg, nil
}

func (ms *messageService) Page(ctx context.Context, chatID, userID uuid.UUID, limit int, cursor *Cursor) ([]*chat.Message, *Cursor, error) {
	p, err := ms.participants.Get(ctx, nil, chatID, userID)
	if err != nil {
		return nil, nil, apierr.Store(fmt.Errorf("load participant: %w", err))
	}
	if p == nil {
		return nil, nil, apierr.Forbidden(fmt.Errorf("user %s is not a participant of chat %s", userID, chatID))
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var cursorTs *time.Time
	var cursorID *uuid.UUID
	if cursor != nil {
		ts := time.UnixMilli(cursor.Ts).UTC()
		id := cursor.ID
		cursorTs, cursorID = &ts, &id
	}

	// Probe one past the page so a full page is distinguishable from the end
	// of history.
	items, err := ms.messages.PageByChat(ctx, nil, chatID, limit+1, cursorTs, cursorID)
	if err != nil {
		return nil, nil, apierr.Store(fmt.Errorf("page messages: %w", err))
	}

	var next *Cursor
	if len(items) > limit {
		items = items[:limit]
		oldest := items[len(items)-1]
		next = &Cursor{Ts: oldest.CreatedAt.UnixMilli(), ID: oldest.ID}
	}
	return items, next, nil
}
