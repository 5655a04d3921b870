package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"

	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// MessageContent is the small content variant: {text} for text messages,
// {imageUrl} for images.
type MessageContent struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Message is append-only. ChatID, SenderID and CreatedAt never change after
// insert; (CreatedAt DESC, ID DESC) is the total order for history.
type Message struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	ChatID   uuid.UUID `gorm:"type:uuid;not null;index:idx_message_chat_created,priority:1" json:"chatId"`
	SenderID uuid.UUID `gorm:"type:uuid;not null;index" json:"senderId"`

	Role    string         `gorm:"column:role;not null;default:'user'" json:"role"`
	Type    string         `gorm:"column:type;not null;default:'text'" json:"type"`
	Content datatypes.JSON `gorm:"column:content" json:"content"`

	// ClientID is a client-supplied reconciliation token. The server stores
	// it verbatim and never deduplicates by it.
	ClientID string `gorm:"column:client_id" json:"clientId,omitempty"`

	CreatedAt time.Time  `gorm:"column:created_at;not null;index:idx_message_chat_created,priority:2" json:"createdAt"`
	EditedAt  *time.Time `gorm:"column:edited_at" json:"editedAt"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deletedAt"`
}

func (Message) TableName() string { return "chat_message" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}
