package ws

import (
	"encoding/json"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgPing MessageType = "ping"
)

// Server → Client message types
const (
	MsgSnapshot   MessageType = "snapshot"
	MsgRoomClosed MessageType = "room_closed"
	MsgError      MessageType = "error"
	MsgPong       MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type MessageType `json:"type"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload any) (*ServerMessage, error) {
	msg := &ServerMessage{
		Type:      msgType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// RoomClosedPayload is the payload for room_closed message
type RoomClosedPayload struct {
	RoomCode string `json:"roomCode"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRoomNotFound   = "ROOM_NOT_FOUND"
)
