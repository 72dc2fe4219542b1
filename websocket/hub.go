package websocket

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"retroriff/types"
)

// AllSessions is the subscription key that receives every session's updates
const AllSessions = "all"

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	Shutdown()
	BroadcastProgress(sessionID, msgType, status, message string, progress float64)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	ClientCount() int
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	// Registered clients mapped by session ID
	clients map[string]map[*Client]bool

	broadcast  chan types.ProgressMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.ProgressMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for key, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, key)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.sessionID] == nil {
				h.clients[client.sessionID] = make(map[*Client]bool)
			}
			h.clients[client.sessionID][client] = true
			h.mu.Unlock()
			h.logger.Debug("WebSocket client connected", zap.String("session", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client.sessionID, client)
			h.mu.Unlock()
			h.logger.Debug("WebSocket client disconnected", zap.String("session", client.sessionID))

		case message := <-h.broadcast:
			h.mu.Lock()
			h.deliver(message.SessionID, message)
			if message.SessionID != AllSessions {
				h.deliver(AllSessions, message)
			}
			h.mu.Unlock()
		}
	}
}

// deliver sends to every client under key, dropping clients that cannot keep up.
// Callers hold h.mu.
func (h *hub) deliver(key string, message types.ProgressMessage) {
	for client := range h.clients[key] {
		select {
		case client.send <- message:
		default:
			h.remove(key, client)
		}
	}
}

// remove drops a client; callers hold h.mu
func (h *hub) remove(key string, client *Client) {
	clients, ok := h.clients[key]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.send)
	}
	if len(clients) == 0 {
		delete(h.clients, key)
	}
}

// Shutdown stops the event loop and closes every client
func (h *hub) Shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
}

// BroadcastProgress sends a progress message to all clients of a session
func (h *hub) BroadcastProgress(sessionID, msgType, status, message string, progress float64) {
	progressMsg := types.ProgressMessage{
		SessionID: sessionID,
		Type:      msgType,
		Progress:  progress,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- progressMsg:
	default:
		h.logger.Warn("WebSocket broadcast channel full, dropping message", zap.String("session", sessionID))
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}
