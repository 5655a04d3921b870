package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/realtime"
	"github.com/adopaw/adopaw-backend/internal/realtime/bus"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

// ChatPeer is the other participant shown in a chat list entry.
type ChatPeer struct {
	ID        uuid.UUID `json:"_id"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

type LastMessagePreview struct {
	ID        uuid.UUID       `json:"_id"`
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	SenderID  uuid.UUID       `json:"senderId"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ChatSummary struct {
	ID            uuid.UUID           `json:"_id"`
	PetID         *uuid.UUID          `json:"petId,omitempty"`
	LastMessageAt time.Time           `json:"lastMessageAt"`
	UnreadCount   int64               `json:"unreadCount"`
	Peer          *ChatPeer           `json:"peer,omitempty"`
	LastMessage   *LastMessagePreview `json:"lastMessage,omitempty"`
}

type DirectoryService interface {
	// Ensure returns the chat for the given participant set and pet subject,
	// creating it exactly once across concurrent callers.
	Ensure(ctx context.Context, requesterID uuid.UUID, otherUserIDs []uuid.UUID, petID *uuid.UUID) (*chat.Chat, bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]ChatSummary, error)
	// Preview loads the chat and its last message, enforcing membership.
	Preview(ctx context.Context, chatID, userID uuid.UUID) (*chat.Chat, *chat.Message, error)
	IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
}

type directoryService struct {
	db           *gorm.DB
	log          *logger.Logger
	chatRepo     repos.ChatRepo
	participants repos.ParticipantRepo
	messages     repos.MessageRepo
	publisher    bus.Publisher
}

func NewDirectoryService(
	db *gorm.DB,
	log *logger.Logger,
	chatRepo repos.ChatRepo,
	participants repos.ParticipantRepo,
	messages repos.MessageRepo,
	publisher bus.Publisher,
) DirectoryService {
	return &directoryService{
		db:           db,
		log:          log.With("service", "DirectoryService"),
		chatRepo:     chatRepo,
		participants: participants,
		messages:     messages,
		publisher:    publisher,
	}
}

func (ds *directoryService) Ensure(ctx context.Context, requesterID uuid.UUID, otherUserIDs []uuid.UUID, petID *uuid.UUID) (*chat.Chat, bool, error) {
	if requesterID == uuid.Nil {
		return nil, false, apierr.Unauthorized(fmt.Errorf("missing requester"))
	}

	members := append([]uuid.UUID{requesterID}, otherUserIDs...)
	key, distinct := chat.CanonicalKey(petID, members)
	if len(distinct) < 2 {
		return nil, false, apierr.InvalidParticipants(fmt.Errorf("need at least two distinct participants, got %d", len(distinct)))
	}

	now := time.Now().UTC()
	c := &chat.Chat{
		ChatKey:       key,
		PetID:         petID,
		IsGroup:       len(distinct) > 2,
		LastMessageAt: now,
	}

	var created bool
	err := ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = ds.chatRepo.EnsureByKey(ctx, tx, c)
		if txErr != nil {
			return fmt.Errorf("ensure chat by key: %w", txErr)
		}

		// Participant rows are idempotent too: re-ensuring an existing chat
		// must not reset anyone's read watermark.
		parts := make([]*chat.Participant, 0, len(distinct))
		for _, id := range distinct {
			role := chat.RoleOwner
			if id == requesterID {
				role = chat.RoleAdopter
			}
			parts = append(parts, &chat.Participant{
				ChatID:   c.ID,
				UserID:   id,
				Role:     role,
				JoinedAt: now,
				// Epoch means never read, so a message landing in the same
				// instant the chat is created still counts as unread.
				LastReadAt: time.Unix(0, 0).UTC(),
			})
		}
		if txErr = ds.participants.EnsureMany(ctx, tx, parts); txErr != nil {
			return fmt.Errorf("ensure participants: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, false, apierr.Store(err)
	}

	if created {
		if pubErr := ds.publisher.Publish(ctx, realtime.Event{Kind: realtime.EventChatCreated, Chat: c}); pubErr != nil {
			ds.log.Warn("publish chat-created", "chatID", c.ID, "error", pubErr)
		}
	}
	return c, created, nil
}

func (ds *directoryService) ListForUser(ctx context.Context, userID uuid.UUID) ([]ChatSummary, error) {
	rows, err := ds.chatRepo.ListSummariesForUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Store(fmt.Errorf("list chat summaries: %w", err))
	}

	out := make([]ChatSummary, 0, len(rows))
	for _, row := range rows {
		s := ChatSummary{
			ID:            row.ChatID,
			LastMessageAt: row.LastMessageAt,
			UnreadCount:   row.UnreadCount,
		}
		if row.PetID != uuid.Nil {
			petID := row.PetID
			s.PetID = &petID
		}
		if row.PeerID != uuid.Nil {
			s.Peer = &ChatPeer{
				ID:        row.PeerID,
				Name:      row.PeerName,
				AvatarURL: row.PeerAvatarURL,
			}
		}
		if row.LastMessageID != uuid.Nil {
			s.LastMessage = &LastMessagePreview{
				ID:        row.LastMessageID,
				Type:      row.LastMessageType,
				Role:      row.LastMessageRole,
				Content:   json.RawMessage(row.LastMessageContent),
				SenderID:  row.LastMessageSenderID,
				CreatedAt: row.LastMessageCreatedAt,
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (ds *directoryService) IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	p, err := ds.participants.Get(ctx, nil, chatID, userID)
	if err != nil {
		return false, apierr.Store(fmt.Errorf("load participant: %w", err))
	}
	return p != nil, nil
}

func (ds *directoryService) Preview(ctx context.Context, chatID, userID uuid.UUID) (*chat.Chat, *chat.Message, error) {
	p, err := ds.participants.Get(ctx, nil, chatID, userID)
	if err != nil {
		return nil, nil, apierr.Store(fmt.Errorf("load participant: %w", err))
	}
	if p == nil {
		return nil, nil, apierr.Forbidden(fmt.Errorf("user %s is not a participant of chat %s", userID, chatID))
	}

	c, err := ds.chatRepo.GetByID(ctx, nil, chatID)
	if err != nil {
		return nil, nil, apierr.NotFound(fmt.Errorf("load chat: %w", err))
	}

	var last *chat.Message
	if c.LastMessageID != nil {
		last, err = ds.messages.GetByID(ctx, nil, *c.LastMessageID)
		if err != nil {
			return nil, nil, apierr.Store(fmt.Errorf("load last message: %w", err))
		}
	}
	return c, last, nil
}
