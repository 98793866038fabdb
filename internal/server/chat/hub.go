// Package chat runs the per-stream chat rooms behind the /ws/chat endpoint.
// A room is keyed by the stream's playback id and exists only while it has
// connected clients; history is not persisted, only the per-session message
// counter is.
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/streamfi/streamfi/internal/logging"
)

// MessageCounter receives one call per delivered chat message so the open
// broadcast session can account for chat volume. Implemented by the stream
// session bookkeeping; failures are logged, never surfaced to chatters.
type MessageCounter interface {
	CountMessage(ctx context.Context, playbackID string) error
}

// Message is the wire format exchanged with chat clients.
type Message struct {
	Type     string    `json:"type"` // "chat", "joined", "left"
	Username string    `json:"username,omitempty"`
	Text     string    `json:"text,omitempty"`
	SentAt   time.Time `json:"sentAt"`
}

type room struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

type inbound struct {
	client *Client
	msg    *Message
}

// Hub owns every chat room and serializes membership changes through its
// run loop. Broadcasts fan out via each client's buffered send channel; a
// client that cannot keep up is dropped.
type Hub struct {
	rooms      map[string]*room
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	messages   chan inbound
	counter    MessageCounter
	logger     logging.Logger
}

func NewHub(counter MessageCounter, logger logging.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]*room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		messages:   make(chan inbound, 256),
		counter:    counter,
		logger:     logger.With("module", "chat_hub"),
	}
}

// Run processes hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.handleRegister(ctx, client)
		case client := <-h.unregister:
			h.handleUnregister(ctx, client)
		case in := <-h.messages:
			h.handleMessage(ctx, in)
		}
	}
}

func (h *Hub) handleRegister(ctx context.Context, client *Client) {
	h.mu.Lock()
	r, ok := h.rooms[client.playbackID]
	if !ok {
		r = &room{clients: make(map[*Client]bool)}
		h.rooms[client.playbackID] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.clients[client] = true
	r.mu.Unlock()

	h.broadcast(client.playbackID, &Message{Type: "joined", Username: client.username, SentAt: time.Now()}, client)
}

func (h *Hub) handleUnregister(ctx context.Context, client *Client) {
	h.mu.Lock()
	r, ok := h.rooms[client.playbackID]
	h.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	if _, present := r.clients[client]; present {
		delete(r.clients, client)
		close(client.send)
	}
	empty := len(r.clients) == 0
	r.mu.Unlock()

	if empty {
		h.mu.Lock()
		delete(h.rooms, client.playbackID)
		h.mu.Unlock()
	}

	h.broadcast(client.playbackID, &Message{Type: "left", Username: client.username, SentAt: time.Now()}, nil)
}

func (h *Hub) handleMessage(ctx context.Context, in inbound) {
	if in.msg.Text == "" {
		return
	}

	out := &Message{
		Type:     "chat",
		Username: in.client.username,
		Text:     in.msg.Text,
		SentAt:   time.Now(),
	}
	h.broadcast(in.client.playbackID, out, nil)

	if err := h.counter.CountMessage(ctx, in.client.playbackID); err != nil {
		h.logger.Warn(ctx, "chat message accounting failed", "playback_id", in.client.playbackID, "error", err)
	}
}

func (h *Hub) broadcast(playbackID string, msg *Message, exclude *Client) {
	h.mu.RLock()
	r, ok := h.rooms[playbackID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for client := range r.clients {
		if client == exclude {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer; the read pump will unregister it.
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.rooms {
		r.mu.Lock()
		for client := range r.clients {
			close(client.send)
			delete(r.clients, client)
		}
		r.mu.Unlock()
	}
	h.rooms = make(map[string]*room)
}

// RoomSize reports how many clients are connected to a room.
func (h *Hub) RoomSize(playbackID string) int {
	h.mu.RLock()
	r, ok := h.rooms[playbackID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
