package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
)

// Endpoint names used as hub buckets and metric labels
const (
	EndpointNotifications = "notifications"
	EndpointChats         = "chats"
)

// Frame is one JSON message on a socket, in either direction
type Frame struct {
	// Type of frame. Server: snapshot, notification, message, ack, error.
	// Client: mark_read, mark_all_read, reload, send, switch.
	Type string `json:"type"`

	// Target of a client command (notification id or chat id)
	ID string `json:"id,omitempty"`

	// Message text for send
	Content string `json:"content,omitempty"`

	// Payload of server frames
	Data interface{} `json:"data,omitempty"`

	Error string `json:"error,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Hub keeps the set of open sessions per endpoint so they can be counted
// and shut down together
type Hub struct {
	// Registered clients organized by endpoint
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations until ctx is done, then closes every session
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

// Register adds client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client and closes its outbound queue
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.closeSend()
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.endpoint]; !ok {
		h.clients[client.endpoint] = make(map[*Client]bool)
	}
	h.clients[client.endpoint][client] = true
	monitoring.ActiveSockets.WithLabelValues(client.endpoint).Inc()

	h.logger.Info().
		Str("endpoint", client.endpoint).
		Str("profileID", client.profileID).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.endpoint]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.endpoint)
	}
	client.closeSend()
	monitoring.ActiveSockets.WithLabelValues(client.endpoint).Dec()

	h.logger.Info().
		Str("endpoint", client.endpoint).
		Str("profileID", client.profileID).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for endpoint, clients := range h.clients {
		for client := range clients {
			client.closeSend()
			monitoring.ActiveSockets.WithLabelValues(endpoint).Dec()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.logger.Info().Msg("All websocket sessions closed")
}

// ClientsCount returns the number of open sessions on endpoint
func (h *Hub) ClientsCount(endpoint string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[endpoint])
}
