package realtime

import (
	"github.com/google/uuid"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
)

// Event kinds carried on the change-notifier bus. Writers publish these
// after the store write commits; the gateway is the consumer.
const (
	EventMessageCreated = "message-created"
	EventChatCreated    = "chat-created"
)

// Event is a committed store change. Exactly one of Message/Chat is set,
// matching Kind.
type Event struct {
	Kind    string        `json:"kind"`
	Message *chat.Message `json:"message,omitempty"`
	Chat    *chat.Chat    `json:"chat,omitempty"`
}

// ID identifies the underlying row, letting consumers drop redeliveries.
func (e Event) ID() uuid.UUID {
	switch {
	case e.Message != nil:
		return e.Message.ID
	case e.Chat != nil:
		return e.Chat.ID
	}
	return uuid.Nil
}

// Frame is one server-to-client push on a websocket connection.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Channel names. A connection is always subscribed to its user channel and
// joins/leaves chat channels explicitly.
func UserChannel(userID uuid.UUID) string { return "user:" + userID.String() }
func ChatChannel(chatID uuid.UUID) string { return "chat:" + chatID.String() }
