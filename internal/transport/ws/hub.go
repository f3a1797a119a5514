package ws

import (
	"log/slog"
	"sync"

	"doodleduel/internal/domain"
)

// Hub fans room snapshots out to every stream subscribed to that room
type Hub struct {
	rooms  map[string]map[*Client]struct{}
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Register subscribes a client to its room
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.roomCode]
	if !ok {
		clients = make(map[*Client]struct{})
		h.rooms[c.roomCode] = clients
	}
	clients[c] = struct{}{}
}

// Unregister removes a client from its room
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.roomCode]
	if !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, c.roomCode)
	}
}

// Broadcast sends the snapshot to every subscriber of the room
func (h *Hub) Broadcast(room *domain.Room) {
	msg, err := NewServerMessage(MsgSnapshot, room)
	if err != nil {
		h.logger.Error("failed to encode snapshot", "roomCode", room.Code, "error", err)
		return
	}
	for _, c := range h.subscribers(room.Code) {
		c.Send(msg)
	}
}

// CloseRoom tells every subscriber the room is gone and drops them
func (h *Hub) CloseRoom(code string) {
	msg, err := NewServerMessage(MsgRoomClosed, &RoomClosedPayload{RoomCode: code})
	if err != nil {
		return
	}
	for _, c := range h.subscribers(code) {
		c.Send(msg)
		c.closeAfterFlush()
	}

	h.mu.Lock()
	delete(h.rooms, code)
	h.mu.Unlock()
}

// Count returns how many streams are subscribed to the room
func (h *Hub) Count(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

func (h *Hub) subscribers(code string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.rooms[code]))
	for c := range h.rooms[code] {
		clients = append(clients, c)
	}
	return clients
}
