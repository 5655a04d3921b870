package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is a conversation between a set of participants, optionally about a
// pet. ChatKey is the canonical participant key: at most one chat exists per
// key, enforced by the unique index and the insert-if-absent upsert in the
// directory service.
type Chat struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"_id"`
	ChatKey string     `gorm:"column:chat_key;not null;uniqueIndex" json:"-"`
	PetID   *uuid.UUID `gorm:"type:uuid;column:pet_id;index" json:"petId,omitempty"`
	IsGroup bool       `gorm:"column:is_group;not null;default:false" json:"isGroup"`

	// LastMessageID is a weak pointer for list previews, never an ownership
	// link. Updated after every append; self-heals on the next message if an
	// update is lost.
	LastMessageAt time.Time  `gorm:"column:last_message_at;not null;index" json:"lastMessageAt"`
	LastMessageID *uuid.UUID `gorm:"type:uuid;column:last_message_id" json:"lastMessageId,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Chat) TableName() string { return "chat" }

func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
