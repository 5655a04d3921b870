package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

type MessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, m *chat.Message) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*chat.Message, error)
	// PageByChat returns up to limit messages ordered (created_at DESC,
	// id DESC), strictly older than the cursor when one is given.
	PageByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID, limit int, cursorTs *time.Time, cursorID *uuid.UUID) ([]*chat.Message, error)
	// CountAfter counts messages in the chat strictly newer than after.
	CountAfter(ctx context.Context, tx *gorm.DB, chatID uuid.UUID, after time.Time) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *messageRepo) Create(ctx context.Context, tx *gorm.DB, m *chat.Message) error {
	return r.conn(tx).WithContext(ctx).Create(m).Error
}

func (r *messageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*chat.Message, error) {
	var m chat.Message
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepo) PageByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID, limit int, cursorTs *time.Time, cursorID *uuid.UUID) ([]*chat.Message, error) {
	q := r.conn(tx).WithContext(ctx).
		Where("chat_id = ?", chatID)

	// Keyset predicate: strictly older than the cursor row, ties broken by
	// id. Stays correct under concurrent inserts, unlike offsets.
	if cursorTs != nil && cursorID != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", *cursorTs, *cursorTs, *cursorID)
	}

	var items []*chat.Message
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *messageRepo) CountAfter(ctx context.Context, tx *gorm.DB, chatID uuid.UUID, after time.Time) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&chat.Message{}).
		Where("chat_id = ? AND created_at > ?", chatID, after).
		Count(&count).Error
	return count, err
}
