package bus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/adopaw/adopaw-backend/internal/domain/chat"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/realtime"
)

func newBusPair(t *testing.T) (Bus, Bus) {
	t.Helper()
	mr := miniredis.RunT(t)

	open := func() Bus {
		rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		b, err := NewRedisBus(logger.NewNop(), rdb)
		if err != nil {
			t.Fatalf("new bus: %v", err)
		}
		return b
	}
	// Separate connections for each side, like separate processes.
	return open(), open()
}

func waitForEvent(t *testing.T, ch <-chan realtime.Event) realtime.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for event")
		return realtime.Event{}
	}
}

func TestPublishReachesForwarder(t *testing.T) {
	pub, sub := newBusPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan realtime.Event, 4)
	if err := sub.StartForwarder(ctx, func(ev realtime.Event) { received <- ev }); err != nil {
		t.Fatalf("start forwarder: %v", err)
	}
	// Give the subscription a moment to establish before publishing.
	time.Sleep(100 * time.Millisecond)

	msg := &chat.Message{ID: uuid.New(), ChatID: uuid.New(), SenderID: uuid.New(), Type: chat.MessageTypeText}
	if err := pub.Publish(ctx, realtime.Event{Kind: realtime.EventMessageCreated, Message: msg}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ev := waitForEvent(t, received)
	if ev.Kind != realtime.EventMessageCreated {
		t.Fatalf("kind %q, want %q", ev.Kind, realtime.EventMessageCreated)
	}
	if ev.Message == nil || ev.Message.ID != msg.ID {
		t.Fatalf("message did not round-trip: %+v", ev.Message)
	}
}

func TestForwarderSkipsBadPayloads(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	b, err := NewRedisBus(logger.NewNop(), rdb)
	if err != nil {
		t.Fatalf("new bus: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan realtime.Event, 4)
	if err := b.StartForwarder(ctx, func(ev realtime.Event) { received <- ev }); err != nil {
		t.Fatalf("start forwarder: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := rdb.Publish(ctx, "chat-events", "not json").Err(); err != nil {
		t.Fatalf("publish garbage: %v", err)
	}
	c := &chat.Chat{ID: uuid.New(), ChatKey: "none:k"}
	if err := b.Publish(ctx, realtime.Event{Kind: realtime.EventChatCreated, Chat: c}); err != nil {
		t.Fatalf("publish event: %v", err)
	}

	ev := waitForEvent(t, received)
	if ev.Kind != realtime.EventChatCreated || ev.Chat == nil || ev.Chat.ID != c.ID {
		t.Fatalf("valid event lost after garbage payload: %+v", ev)
	}
}

func TestStartForwarderRequiresCallback(t *testing.T) {
	_, sub := newBusPair(t)
	if err := sub.StartForwarder(context.Background(), nil); err == nil {
		t.Fatalf("expected an error for a nil callback")
	}
}

func TestStartForwarderReturnsBeforeSubscribing(t *testing.T) {
	// A bus pointed at a dead address must not block startup.
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })

	b, err := NewRedisBus(logger.NewNop(), rdb)
	if err != nil {
		t.Fatalf("new bus: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.StartForwarder(ctx, func(realtime.Event) {})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start forwarder: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("StartForwarder blocked on an unreachable broker")
	}
}
