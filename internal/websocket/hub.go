package websocket

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Hub tracks connected clients per user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	byUser  map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		byUser:     make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// SendToUser fans a frame out to every connection the user holds.
func (h *Hub) SendToUser(userID uuid.UUID, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.byUser[userID] {
		client.Send(frame)
	}
}

// ConnectionCount reports how many connections the user holds. Zero
// means the user's last device disconnected.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	if h.byUser[client.UserID] == nil {
		h.byUser[client.UserID] = make(map[*Client]struct{})
	}
	h.byUser[client.UserID][client] = struct{}{}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	if set, ok := h.byUser[client.UserID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
	client.Close()
}
