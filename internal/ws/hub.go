package ws

import (
	"encoding/json"
	"sync"
)

// Client is one websocket connection of a wallet owner.
type Client struct {
	OwnerID string
	Send    chan []byte
	hub     *Hub
	mu      sync.Mutex
	closed  bool
}

func NewClient(ownerID string) *Client {
	return &Client{OwnerID: ownerID, Send: make(chan []byte, 64)}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.hub != nil {
		c.hub.unregister(c)
	}
	close(c.Send)
}

// Hub tracks live connections per owner.
type Hub struct {
	mu      sync.RWMutex
	byOwner map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byOwner: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byOwner[c.OwnerID] == nil {
		h.byOwner[c.OwnerID] = make(map[*Client]struct{})
	}
	h.byOwner[c.OwnerID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byOwner[c.OwnerID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byOwner, c.OwnerID)
		}
	}
}

// BroadcastToOwner sends payload to every connection of ownerID. Slow clients drop messages.
func (h *Hub) BroadcastToOwner(ownerID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byOwner[ownerID] {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var n int
	for _, m := range h.byOwner {
		n += len(m)
	}
	return n
}
