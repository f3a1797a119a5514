// Package store defines the shared room document store every client reads and
// writes, and provides the in-memory backend.
package store

import (
	"context"
	"crypto/rand"
	"errors"

	"doodleduel/internal/domain"
)

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 6

	// RoomCodeChars are characters used for room codes (no ambiguous chars)
	RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// MaxCodeAttempts bounds the search for an unused room code
	MaxCodeAttempts = 10

	// MaxUpdateRetries bounds compare-and-set retries for backends that need them
	MaxUpdateRetries = 8
)

// Store errors
var (
	ErrRoomNotFound    = errors.New("store: room not found")
	ErrVersionConflict = errors.New("store: room changed concurrently")
	ErrCodeExhausted   = errors.New("store: failed to generate unique room code")
)

// Store is the shared document store. Update applies a read-modify-write
// transform; the transform's error aborts the write and is returned as is.
type Store interface {
	Get(ctx context.Context, code string) (*domain.Room, error)
	Update(ctx context.Context, code string, fn domain.Transform) (*domain.Room, error)
	Heartbeat(ctx context.Context, code, playerID string) error
	Create(ctx context.Context, room *domain.Room) (string, error)
	Delete(ctx context.Context, code string) error
}

// Watcher is implemented by stores that can push snapshots instead of being
// polled. The channel is closed when ctx ends or the stream breaks.
type Watcher interface {
	Watch(ctx context.Context, code string) (<-chan *domain.Room, error)
}

// GenerateRoomCode generates a random room code
func GenerateRoomCode(length int) string {
	if length <= 0 {
		length = DefaultRoomCodeLength
	}
	b := make([]byte, length)
	rand.Read(b)

	code := make([]byte, length)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}

	return string(code)
}
