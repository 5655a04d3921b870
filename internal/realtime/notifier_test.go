package realtime

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/adopaw/adopaw-backend/internal/db"
	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

type notifierFixture struct {
	gdb      *gorm.DB
	hub      *Hub
	notifier *Notifier

	chatID uuid.UUID
	alice  uuid.UUID
	bob    uuid.UUID
}

func newNotifierFixture(t *testing.T) *notifierFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.NewNop()
	hub := NewHub(log)
	f := &notifierFixture{
		gdb:      gdb,
		hub:      hub,
		notifier: NewNotifier(log, hub, repos.NewParticipantRepo(gdb, log), repos.NewMessageRepo(gdb, log)),
		chatID:   uuid.New(),
		alice:    uuid.New(),
		bob:      uuid.New(),
	}

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	if err := gdb.Create(&chat.Chat{ID: f.chatID, ChatKey: "none:" + t.Name(), LastMessageAt: now}).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	for _, userID := range []uuid.UUID{f.alice, f.bob} {
		p := &chat.Participant{ChatID: f.chatID, UserID: userID, Role: chat.RoleAdopter, LastReadAt: now}
		if err := gdb.Create(p).Error; err != nil {
			t.Fatalf("seed participant: %v", err)
		}
	}
	return f
}

func (f *notifierFixture) seedMessage(t *testing.T, sender uuid.UUID, at time.Time) *chat.Message {
	t.Helper()
	m := &chat.Message{
		ChatID:    f.chatID,
		SenderID:  sender,
		Role:      chat.MessageRoleUser,
		Type:      chat.MessageTypeText,
		Content:   []byte(`{"text":"hi"}`),
		CreatedAt: at,
	}
	if err := f.gdb.Create(m).Error; err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return m
}

func frames(c *Client) map[string]int {
	counts := make(map[string]int)
	for {
		select {
		case f := <-c.Outbound:
			counts[f.Event]++
		default:
			return counts
		}
	}
}

func TestMessageCreatedFanout(t *testing.T) {
	f := newNotifierFixture(t)

	inRoom := f.hub.NewClient(f.bob)
	f.hub.Subscribe(inRoom, ChatChannel(f.chatID))
	f.hub.Subscribe(inRoom, UserChannel(f.bob))

	elsewhere := f.hub.NewClient(f.alice)
	f.hub.Subscribe(elsewhere, UserChannel(f.alice))

	msg := f.seedMessage(t, f.alice, time.Date(2026, 5, 10, 12, 1, 0, 0, time.UTC))
	f.notifier.HandleEvent(Event{Kind: EventMessageCreated, Message: msg})

	got := frames(inRoom)
	if got["message:new:"+f.chatID.String()] != 1 {
		t.Fatalf("room subscriber missed the message frame: %v", got)
	}
	if got["chat:list:update"] != 1 || got["chat:touch"] != 1 {
		t.Fatalf("room subscriber missed list frames: %v", got)
	}

	got = frames(elsewhere)
	if got["message:new:"+f.chatID.String()] != 0 {
		t.Fatalf("user not in the room received the room frame: %v", got)
	}
	if got["chat:list:update"] != 1 {
		t.Fatalf("user-channel list update missing: %v", got)
	}
}

func TestRedeliveredEventFansOutOnce(t *testing.T) {
	f := newNotifierFixture(t)

	c := f.hub.NewClient(f.bob)
	f.hub.Subscribe(c, UserChannel(f.bob))

	msg := f.seedMessage(t, f.alice, time.Date(2026, 5, 10, 12, 1, 0, 0, time.UTC))
	ev := Event{Kind: EventMessageCreated, Message: msg}

	f.notifier.HandleEvent(ev)
	f.notifier.HandleEvent(ev)
	f.notifier.HandleEvent(ev)

	if got := frames(c); got["chat:list:update"] != 1 {
		t.Fatalf("redelivered event fanned out %d times", got["chat:list:update"])
	}
}

func TestUnreadCountIsPerRecipient(t *testing.T) {
	f := newNotifierFixture(t)

	// Bob read up to 12:05, alice is stuck at 12:00.
	if err := f.gdb.Model(&chat.Participant{}).
		Where("chat_id = ? AND user_id = ?", f.chatID, f.bob).
		Update("last_read_at", time.Date(2026, 5, 10, 12, 5, 0, 0, time.UTC)).Error; err != nil {
		t.Fatalf("advance bob: %v", err)
	}

	f.seedMessage(t, f.alice, time.Date(2026, 5, 10, 12, 1, 0, 0, time.UTC))
	f.seedMessage(t, f.alice, time.Date(2026, 5, 10, 12, 2, 0, 0, time.UTC))
	latest := f.seedMessage(t, f.alice, time.Date(2026, 5, 10, 12, 10, 0, 0, time.UTC))

	aliceClient := f.hub.NewClient(f.alice)
	bobClient := f.hub.NewClient(f.bob)
	f.hub.Subscribe(aliceClient, UserChannel(f.alice))
	f.hub.Subscribe(bobClient, UserChannel(f.bob))

	f.notifier.HandleEvent(Event{Kind: EventMessageCreated, Message: latest})

	aliceUnread := listUpdateUnread(t, aliceClient)
	bobUnread := listUpdateUnread(t, bobClient)
	if aliceUnread != 3 {
		t.Fatalf("alice unread %d, want 3", aliceUnread)
	}
	if bobUnread != 1 {
		t.Fatalf("bob unread %d, want 1", bobUnread)
	}
}

func listUpdateUnread(t *testing.T, c *Client) int64 {
	t.Helper()
	for {
		select {
		case f := <-c.Outbound:
			if f.Event != "chat:list:update" {
				continue
			}
			data, ok := f.Data.(map[string]any)
			if !ok {
				t.Fatalf("unexpected data shape %T", f.Data)
			}
			chatPart, ok := data["chat"].(map[string]any)
			if !ok {
				t.Fatalf("missing chat in list update")
			}
			unread, ok := chatPart["unreadCount"].(int64)
			if !ok {
				t.Fatalf("unreadCount missing or wrong type %T", chatPart["unreadCount"])
			}
			return unread
		default:
			t.Fatalf("no chat:list:update frame buffered")
		}
	}
}

func TestChatCreatedFanout(t *testing.T) {
	f := newNotifierFixture(t)

	aliceClient := f.hub.NewClient(f.alice)
	bobClient := f.hub.NewClient(f.bob)
	f.hub.Subscribe(aliceClient, UserChannel(f.alice))
	f.hub.Subscribe(bobClient, UserChannel(f.bob))

	var c chat.Chat
	if err := f.gdb.Where("id = ?", f.chatID).First(&c).Error; err != nil {
		t.Fatalf("load chat: %v", err)
	}
	f.notifier.HandleEvent(Event{Kind: EventChatCreated, Chat: &c})

	if got := frames(aliceClient); got["chat:new"] != 1 {
		t.Fatalf("alice missed chat:new: %v", got)
	}
	if got := frames(bobClient); got["chat:new"] != 1 {
		t.Fatalf("bob missed chat:new: %v", got)
	}
}

func TestEventWithoutIDIsIgnored(t *testing.T) {
	f := newNotifierFixture(t)

	c := f.hub.NewClient(f.bob)
	f.hub.Subscribe(c, UserChannel(f.bob))

	f.notifier.HandleEvent(Event{Kind: EventMessageCreated})

	if got := frames(c); len(got) != 0 {
		t.Fatalf("empty event produced frames: %v", got)
	}
}
