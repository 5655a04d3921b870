package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

type ParticipantRepo interface {
	// EnsureMany inserts one row per participant, leaving existing rows
	// (and their LastReadAt) untouched.
	EnsureMany(ctx context.Context, tx *gorm.DB, parts []*chat.Participant) error
	// Get returns nil (no error) when the user is not a participant.
	Get(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*chat.Participant, error)
	ListByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*chat.Participant, error)
	CountByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) (int64, error)
	// AdvanceLastRead moves the watermark forward; a call that would move it
	// backward is a no-op and reports updated=false.
	AdvanceLastRead(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID, at time.Time) (bool, error)
}

type participantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParticipantRepo(db *gorm.DB, baseLog *logger.Logger) ParticipantRepo {
	return &participantRepo{db: db, log: baseLog.With("repo", "ParticipantRepo")}
}

func (r *participantRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *participantRepo) EnsureMany(ctx context.Context, tx *gorm.DB, parts []*chat.Participant) error {
	if len(parts) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&parts).Error
}

func (r *participantRepo) Get(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*chat.Participant, error) {
	var p chat.Participant
	err := r.conn(tx).WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participantRepo) ListByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*chat.Participant, error) {
	var parts []*chat.Participant
	err := r.conn(tx).WithContext(ctx).
		Where("chat_id = ?", chatID).
		Find(&parts).Error
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func (r *participantRepo) CountByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&chat.Participant{}).
		Where("chat_id = ?", chatID).
		Count(&count).Error
	return count, err
}

func (r *participantRepo) AdvanceLastRead(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID, at time.Time) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Model(&chat.Participant{}).
		Where("chat_id = ? AND user_id = ? AND last_read_at < ?", chatID, userID, at).
		Update("last_read_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
