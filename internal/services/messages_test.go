package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/realtime"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

type chatFixture struct {
	gdb       *gorm.DB
	pub       *capturePublisher
	directory DirectoryService
	messages  MessageService
	unread    UnreadService

	chatID uuid.UUID
	alice  uuid.UUID
	bob    uuid.UUID
}

// newChatFixture builds the full service stack around one alice/bob chat.
func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	gdb := newTestDB(t)
	log := logger.NewNop()
	pub := &capturePublisher{}

	chatRepo := repos.NewChatRepo(gdb, log)
	participantRepo := repos.NewParticipantRepo(gdb, log)
	messageRepo := repos.NewMessageRepo(gdb, log)
	receiptRepo := repos.NewReadReceiptRepo(gdb, log)

	f := &chatFixture{
		gdb:       gdb,
		pub:       pub,
		directory: NewDirectoryService(gdb, log, chatRepo, participantRepo, messageRepo, pub),
		messages:  NewMessageService(gdb, log, chatRepo, participantRepo, messageRepo, pub),
		unread:    NewUnreadService(gdb, log, participantRepo, messageRepo, receiptRepo),
		alice:     uuid.New(),
		bob:       uuid.New(),
	}

	c, _, err := f.directory.Ensure(context.Background(), f.alice, []uuid.UUID{f.bob}, nil)
	if err != nil {
		t.Fatalf("ensure chat: %v", err)
	}
	f.chatID = c.ID
	return f
}

func TestAppendRejectsNonParticipant(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.messages.Append(context.Background(), uuid.New(), AppendInput{
		ChatID:  f.chatID,
		Content: chat.MessageContent{Text: "let me in"},
	})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "forbidden" {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAppendValidatesContent(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   AppendInput
		code string
	}{
		{"text without text", AppendInput{ChatID: f.chatID, Type: chat.MessageTypeText}, "empty_message"},
		{"image without url", AppendInput{ChatID: f.chatID, Type: chat.MessageTypeImage}, "empty_message"},
		{"unknown type", AppendInput{ChatID: f.chatID, Type: "video", Content: chat.MessageContent{Text: "x"}}, "invalid_message_type"},
	}
	for _, tc := range cases {
		_, err := f.messages.Append(ctx, f.alice, tc.in)
		var ae *apierr.Error
		if !errors.As(err, &ae) || ae.Code != tc.code {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
	}
}

func TestAppendBumpsLastMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	msg, err := f.messages.Append(ctx, f.alice, AppendInput{
		ChatID:  f.chatID,
		Content: chat.MessageContent{Text: "hello bob"},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	var c chat.Chat
	if err := f.gdb.Where("id = ?", f.chatID).First(&c).Error; err != nil {
		t.Fatalf("reload chat: %v", err)
	}
	if c.LastMessageID == nil || *c.LastMessageID != msg.ID {
		t.Fatalf("last message pointer not bumped")
	}
	if !c.LastMessageAt.Equal(msg.CreatedAt) {
		t.Fatalf("last message time %v, want %v", c.LastMessageAt, msg.CreatedAt)
	}

	if got := f.pub.byKind(realtime.EventMessageCreated); len(got) != 1 {
		t.Fatalf("expected one message-created event, got %d", len(got))
	}
}

func TestAppendKeepsDuplicateClientIDs(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.messages.Append(ctx, f.alice, AppendInput{
			ChatID:   f.chatID,
			Content:  chat.MessageContent{Text: "retry"},
			ClientID: "local-42",
		}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	var count int64
	if err := f.gdb.Model(&chat.Message{}).
		Where("chat_id = ? AND client_id = ?", f.chatID, "local-42").
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected both duplicate sends stored, got %d", count)
	}
}

func TestPageWalksTiedTimestamps(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	// Five rows sharing one created_at; only the id breaks the tie.
	at := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	want := make(map[uuid.UUID]bool, 5)
	for i := 0; i < 5; i++ {
		m := &chat.Message{
			ID:        uuid.New(),
			ChatID:    f.chatID,
			SenderID:  f.alice,
			Role:      chat.MessageRoleUser,
			Type:      chat.MessageTypeText,
			Content:   []byte(`{"text":"tied"}`),
			CreatedAt: at,
		}
		if err := f.gdb.Create(m).Error; err != nil {
			t.Fatalf("seed message %d: %v", i, err)
		}
		want[m.ID] = true
	}

	seen := make(map[uuid.UUID]bool)
	var cursor *Cursor
	pages := 0
	for {
		items, next, err := f.messages.Page(ctx, f.chatID, f.alice, 2, cursor)
		if err != nil {
			t.Fatalf("page %d: %v", pages, err)
		}
		for _, m := range items {
			if seen[m.ID] {
				t.Fatalf("message %s returned twice", m.ID)
			}
			seen[m.ID] = true
		}
		pages++
		if next == nil {
			break
		}
		cursor = next
		if pages > 10 {
			t.Fatalf("pagination did not terminate")
		}
	}

	if len(seen) != len(want) {
		t.Fatalf("walked %d messages, want %d", len(seen), len(want))
	}
	for id := range want {
		if !seen[id] {
			t.Fatalf("message %s skipped", id)
		}
	}
}

func TestPageOrdersNewestFirst(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := &chat.Message{
			ChatID:    f.chatID,
			SenderID:  f.bob,
			Role:      chat.MessageRoleUser,
			Type:      chat.MessageTypeText,
			Content:   []byte(`{"text":"t"}`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := f.gdb.Create(m).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, next, err := f.messages.Page(ctx, f.chatID, f.alice, 10, nil)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if next != nil {
		t.Fatalf("expected history exhausted")
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].CreatedAt.After(items[i-1].CreatedAt) {
			t.Fatalf("page not newest-first at index %d", i)
		}
	}
}

func TestPageRejectsNonParticipant(t *testing.T) {
	f := newChatFixture(t)

	_, _, err := f.messages.Page(context.Background(), f.chatID, uuid.New(), 10, nil)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "forbidden" {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
