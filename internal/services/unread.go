package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

type UnreadService interface {
	// Count returns how many messages in the chat are newer than the user's
	// read watermark.
	Count(ctx context.Context, chatID, userID uuid.UUID) (int64, error)
	// MarkRead advances the watermark to now. The watermark only moves
	// forward; a stale call leaves it untouched. When messageID is set, a
	// per-message receipt is recorded as well.
	MarkRead(ctx context.Context, chatID, userID uuid.UUID, messageID *uuid.UUID) (time.Time, error)
}

type unreadService struct {
	db           *gorm.DB
	log          *logger.Logger
	participants repos.ParticipantRepo
	messages     repos.MessageRepo
	receipts     repos.ReadReceiptRepo
}

func NewUnreadService(
	db *gorm.DB,
	log *logger.Logger,
	participants repos.ParticipantRepo,
	messages repos.MessageRepo,
	receipts repos.ReadReceiptRepo,
) UnreadService {
	return &unreadService{
		db:           db,
		log:          log.With("service", "UnreadService"),
		participants: participants,
		messages:     messages,
		receipts:     receipts,
	}
}

func (us *unreadService) Count(ctx context.Context, chatID, userID uuid.UUID) (int64, error) {
	p, err := us.participants.Get(ctx, nil, chatID, userID)
	if err != nil {
		return 0, apierr.Store(fmt.Errorf("load participant: %w", err))
	}
	if p == nil {
		return 0, apierr.Forbidden(fmt.Errorf("user %s is not a participant of chat %s", userID, chatID))
	}
	n, err := us.messages.CountAfter(ctx, nil, chatID, p.LastReadAt)
	if err != nil {
		return 0, apierr.Store(fmt.Errorf("count unread: %w", err))
	}
	return n, nil
}

func (us *unreadService) MarkRead(ctx context.Context, chatID, userID uuid.UUID, messageID *uuid.UUID) (time.Time, error) {
	p, err := us.participants.Get(ctx, nil, chatID, userID)
	if err != nil {
		return time.Time{}, apierr.Store(fmt.Errorf("load participant: %w", err))
	}
	if p == nil {
		return time.Time{}, apierr.Forbidden(fmt.Errorf("user %s is not a participant of chat %s", userID, chatID))
	}

	readAt := time.Now().UTC()
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		advanced, txErr := us.participants.AdvanceLastRead(ctx, tx, chatID, userID, readAt)
		if txErr != nil {
			return fmt.Errorf("advance watermark: %w", txErr)
		}
		if !advanced {
			us.log.Debug("read watermark already ahead", "chatID", chatID, "userID", userID)
		}
		if messageID != nil && *messageID != uuid.Nil {
			receipt := &chat.ReadReceipt{
				ChatID:    chatID,
				MessageID: *messageID,
				UserID:    userID,
				ReadAt:    readAt,
			}
			if txErr := us.receipts.Upsert(ctx, tx, receipt); txErr != nil {
				return fmt.Errorf("upsert receipt: %w", txErr)
			}
		}
		return nil
	})
	if err != nil {
		return time.Time{}, apierr.Store(err)
	}
	return readAt, nil
}
