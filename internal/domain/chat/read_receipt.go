package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReadReceipt records that one user read one specific message. It is a
// per-message projection next to the coarser per-chat watermark on
// Participant.
type ReadReceipt struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	ChatID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_receipt_chat_msg_user,priority:1;index" json:"chatId"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_receipt_chat_msg_user,priority:2" json:"messageId"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_receipt_chat_msg_user,priority:3;index" json:"userId"`
	ReadAt    time.Time `gorm:"column:read_at;not null" json:"readAt"`
}

func (ReadReceipt) TableName() string { return "read_receipt" }

func (r *ReadReceipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
