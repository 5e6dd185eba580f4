// Package websocket pushes live merge progress and status events to connected
// browsers.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"optscan/internal/infrastructure"
	"optscan/pkg/contracts/events"
)

// Message type constants, re-exported from the wire contract for callers.
const (
	TypeConnection    = string(events.MessageTypeConnection)
	TypeProgress      = string(events.MessageTypeProgress)
	TypeStatus        = string(events.MessageTypeStatus)
	TypeMergeComplete = string(events.MessageTypeMergeComplete)
	TypeError         = string(events.MessageTypeError)
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64
	messagesSent     int64

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket_hub")),
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop. Safe to call once.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop terminates the hub loop and disconnects all clients.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.greet(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				h.logger.Info("client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
					h.messagesSent++
				default:
					// Slow consumer, drop the connection.
					h.mu.Lock()
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
					}
					h.mu.Unlock()
					h.logger.Warn("client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
		}
	}
}

// greet sends the connection acknowledgement to a freshly registered client.
func (h *Hub) greet(client *Client) {
	msg, err := json.Marshal(events.NewMessage(events.MessageTypeConnection, events.ConnectionPayload{
		Status:   "connected",
		ClientID: client.id,
	}))
	if err != nil {
		return
	}

	select {
	case client.send <- msg:
	default:
		h.logger.Warn("connection message dropped, client buffer full",
			slog.String("client_id", client.id))
	}
}

// BroadcastProgress sends a merge progress event to all connected clients.
func (h *Hub) BroadcastProgress(message string, current, total int) {
	h.broadcastJSON(events.NewMessage(events.MessageTypeProgress, events.ProgressPayload{
		Message: message,
		Current: current,
		Total:   total,
	}))
}

// BroadcastStatus sends a status event to all connected clients.
func (h *Hub) BroadcastStatus(status, message string) {
	h.broadcastJSON(events.NewMessage(events.MessageTypeStatus, events.StatusPayload{
		Status:  status,
		Message: message,
	}))
}

// BroadcastMergeComplete announces a finished merge run with its summary.
func (h *Hub) BroadcastMergeComplete(summary interface{}) {
	h.broadcastJSON(events.NewMessage(events.MessageTypeMergeComplete, summary))
}

// BroadcastError sends an error event to all connected clients.
func (h *Hub) BroadcastError(message string) {
	h.broadcastJSON(events.NewMessage(events.MessageTypeError, events.ErrorPayload{
		Message: message,
	}))
}

func (h *Hub) broadcastJSON(message events.Message) {
	jsonData, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("error marshaling message",
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- jsonData:
	case <-h.quit:
	}
}
