package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleOwner   = "owner"
	RoleAdopter = "adopter"
)

// Participant binds one user to one chat and carries that user's read
// watermark. Exactly one row exists per (chat, user), enforced by the unique
// index rather than application logic.
type Participant struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	ChatID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participant_chat_user,priority:1;index" json:"chatId"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participant_chat_user,priority:2;index" json:"userId"`

	// Role is informational only.
	Role     string    `gorm:"column:role;not null;default:'adopter'" json:"role"`
	JoinedAt time.Time `gorm:"column:joined_at;not null" json:"joinedAt"`

	// LastReadAt only ever moves forward. Epoch means never read.
	LastReadAt time.Time `gorm:"column:last_read_at;not null" json:"lastReadAt"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Participant) TableName() string { return "chat_participant" }

func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	return nil
}
