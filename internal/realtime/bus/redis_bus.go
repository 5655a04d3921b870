package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/adopaw/adopaw-backend/internal/pkg/envutil"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/realtime"
)

const (
	maxSubscribeBackoff = 30 * time.Second
	baseSubscribeDelay  = time.Second
)

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBus wraps an existing redis client as an event bus. The channel
// comes from REDIS_CHANNEL and defaults to "chat-events".
func NewRedisBus(log *logger.Logger, rdb *goredis.Client) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}

	ch := strings.TrimSpace(envutil.Str("REDIS_CHANNEL", "chat-events"))

	return &redisBus{
		log:     log.With("service", "RedisBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, ev realtime.Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder consumes the channel in a background goroutine and hands each
// decoded event to onEvent. It never blocks startup: if the subscription
// cannot be established it retries with capped backoff until ctx is done.
func (b *redisBus) StartForwarder(ctx context.Context, onEvent func(ev realtime.Event)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	go func() {
		delay := baseSubscribeDelay
		for {
			if ctx.Err() != nil {
				return
			}

			sub := b.rdb.Subscribe(ctx, b.channel)
			if _, err := sub.Receive(ctx); err != nil {
				_ = sub.Close()
				if ctx.Err() != nil {
					return
				}
				b.log.Warn("redis subscribe failed; retrying", "error", err, "delay", delay)
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				delay *= 2
				if delay > maxSubscribeBackoff {
					delay = maxSubscribeBackoff
				}
				continue
			}

			delay = baseSubscribeDelay
			b.log.Info("redis forwarder subscribed", "channel", b.channel)
			b.consume(ctx, sub, onEvent)
			_ = sub.Close()
		}
	}()

	return nil
}

func (b *redisBus) consume(ctx context.Context, sub *goredis.PubSub, onEvent func(ev realtime.Event)) {
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok || m == nil {
				b.log.Warn("redis subscription closed; resubscribing")
				return
			}
			var ev realtime.Event
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				b.log.Warn("bad bus payload", "error", err)
				continue
			}
			onEvent(ev)
		}
	}
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
