package realtime

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

// Client is one connected socket. A user may hold several clients at once;
// each carries its own subscription set and outbound buffer.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan Frame

	mu       sync.Mutex
	channels map[string]bool
	closed   bool
}

// Channels returns a snapshot of the client's subscriptions.
func (c *Client) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		out = append(out, ch)
	}
	return out
}

// Hub tracks which clients are subscribed to which channels. Subscriptions
// are plain set membership: one set per channel, one set per client.
type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "Hub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Frame, 32),
		channels: make(map[string]bool),
	}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	client.channels[channel] = true
	client.mu.Unlock()

	clients, ok := h.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		h.subscriptions[channel] = clients
	}
	clients[client] = true

	h.log.Debug("client subscribed", "clientID", client.ID, "channel", channel)
}

func (h *Hub) Unsubscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.channels, channel)
	client.mu.Unlock()

	if clients, ok := h.subscriptions[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.subscriptions, channel)
		}
	}
	h.log.Debug("client unsubscribed", "clientID", client.ID, "channel", channel)
}

// Remove detaches the client from every channel and closes its outbound
// stream. Safe to call more than once.
func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	for ch := range client.channels {
		if clients, ok := h.subscriptions[ch]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.subscriptions, ch)
			}
		}
	}
	client.channels = make(map[string]bool)
	alreadyClosed := client.closed
	client.closed = true
	client.mu.Unlock()

	if !alreadyClosed {
		close(client.Outbound)
	}
	h.log.Debug("client removed", "clientID", client.ID)
}

// Broadcast delivers the frame to every subscriber of the channel. Slow
// consumers are skipped rather than blocking the hub.
func (h *Hub) Broadcast(channel string, f Frame) {
	h.broadcast(channel, f, uuid.Nil)
}

// BroadcastExcept is Broadcast minus one client, for sender-echo suppression
// on typing and read events.
func (h *Hub) BroadcastExcept(channel string, exceptClientID uuid.UUID, f Frame) {
	h.broadcast(channel, f, exceptClientID)
}

func (h *Hub) broadcast(channel string, f Frame, except uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.subscriptions[channel]
	if !ok {
		return
	}
	for c := range clients {
		if except != uuid.Nil && c.ID == except {
			continue
		}
		select {
		case c.Outbound <- f:
		default:
			h.log.Warn("dropping frame; outbound buffer full", "clientID", c.ID, "channel", channel)
		}
	}
}
