package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"doodleduel/internal/store"
)

// Handler upgrades stream requests and subscribes them to a room
type Handler struct {
	hub      *Hub
	store    store.Store
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, st store.Store, logger *slog.Logger) *Handler {
	return &Handler{
		hub:   hub,
		store: st,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Rooms are public by code; any origin may watch
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.URL.Query().Get("roomCode"))
	if roomCode == "" {
		http.Error(w, "roomCode is required", http.StatusBadRequest)
		return
	}
	playerID := r.URL.Query().Get("playerId")

	room, err := h.store.Get(r.Context(), roomCode)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, h.hub, roomCode, playerID, h.logger)
	h.hub.Register(client)

	h.logger.Info("websocket connected", "roomCode", roomCode, "playerID", playerID)

	// The first frame is always the current snapshot
	if msg, err := NewServerMessage(MsgSnapshot, room); err == nil {
		client.Send(msg)
	}

	client.Run()
}
