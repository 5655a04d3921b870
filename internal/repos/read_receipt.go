package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

type ReadReceiptRepo interface {
	// Upsert records the receipt, refreshing ReadAt when the triple already
	// exists.
	Upsert(ctx context.Context, tx *gorm.DB, receipt *chat.ReadReceipt) error
}

type readReceiptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReadReceiptRepo(db *gorm.DB, baseLog *logger.Logger) ReadReceiptRepo {
	return &readReceiptRepo{db: db, log: baseLog.With("repo", "ReadReceiptRepo")}
}

func (r *readReceiptRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *readReceiptRepo) Upsert(ctx context.Context, tx *gorm.DB, receipt *chat.ReadReceipt) error {
	return r.conn(tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"read_at"}),
	}).Create(receipt).Error
}
