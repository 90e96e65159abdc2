package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"dealpulse/pkg/contracts/events"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	counter ClientCounter
	quit    chan struct{}
	stopped sync.Once
}

// ClientCounter receives connect and disconnect events, typically backed by
// a Prometheus gauge.
type ClientCounter interface {
	WebSocketConnected()
	WebSocketDisconnected()
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket")),
		quit:       make(chan struct{}),
	}
}

// SetClientCounter attaches a connection gauge. Call before Run.
func (h *Hub) SetClientCounter(counter ClientCounter) {
	h.counter = counter
}

// Run processes register, unregister and broadcast events until Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			if h.counter != nil {
				h.counter.WebSocketConnected()
			}
			h.logger.Debug("client registered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if ok && h.counter != nil {
				h.counter.WebSocketDisconnected()
			}
			h.logger.Debug("client unregistered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count))

		case message := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			// Drop slow consumers rather than stall the hub.
			for _, client := range slow {
				h.mu.Lock()
				delete(h.clients, client)
				close(client.send)
				h.mu.Unlock()
				if h.counter != nil {
					h.counter.WebSocketDisconnected()
				}
				h.logger.Warn("dropped slow websocket client",
					slog.String("client_id", client.id))
			}

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Shutdown stops the run loop and disconnects all clients.
func (h *Hub) Shutdown() {
	h.stopped.Do(func() {
		close(h.quit)
	})
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a typed message to every connected client.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	payload, err := json.Marshal(events.Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast message",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

// BroadcastDatasetUpdated notifies dashboards that the workbook changed.
func (h *Hub) BroadcastDatasetUpdated(update events.DatasetUpdate) {
	h.Broadcast(events.EventDatasetUpdated, update)
}
