package bus

import (
	"context"

	"github.com/adopaw/adopaw-backend/internal/realtime"
)

// Publisher is the write side of the change notifier: services publish a
// domain event once the corresponding store write has committed.
type Publisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

// Bus adds the consume side: StartForwarder delivers each event to onEvent,
// reconnecting with backoff when the transport drops.
type Bus interface {
	Publisher
	StartForwarder(ctx context.Context, onEvent func(ev realtime.Event)) error
	Close() error
}
