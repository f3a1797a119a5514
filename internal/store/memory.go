package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"doodleduel/internal/domain"
)

const (
	// StaleRoomTimeout is how long a room may go without a heartbeat before cleanup
	StaleRoomTimeout = 2 * time.Hour

	cleanupInterval = 10 * time.Minute
)

// Memory keeps rooms in process memory
type Memory struct {
	rooms          map[string]*domain.Room
	mu             sync.RWMutex
	roomCodeLength int
	logger         *slog.Logger
	done           chan struct{}
	closeOnce      sync.Once
}

// NewMemory creates an in-memory store and starts its cleanup loop
func NewMemory(logger *slog.Logger) *Memory {
	m := &Memory{
		rooms:          make(map[string]*domain.Room),
		roomCodeLength: DefaultRoomCodeLength,
		logger:         logger,
		done:           make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

// Get returns a copy of the room
func (m *Memory) Get(ctx context.Context, code string) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.Clone(), nil
}

// Update applies fn to a copy and stores it if fn succeeds
func (m *Memory) Update(ctx context.Context, code string, fn domain.Transform) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Code = code
	next.Version = current.Version + 1
	next.UpdatedAt = time.Now()
	m.rooms[code] = next

	return next.Clone(), nil
}

// Heartbeat records that the player is still connected
func (m *Memory) Heartbeat(ctx context.Context, code, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	// Unknown players are ignored: the heartbeat is best effort
	_ = room.UpdatePlayer(playerID, func(p *domain.Player) {
		p.LastSeen = time.Now()
	})
	return nil
}

// Create stores a new room under a fresh code and returns the code
func (m *Memory) Create(ctx context.Context, room *domain.Room) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	code := room.Code
	if code == "" || m.exists(code) {
		code = ""
		for attempts := 0; attempts < MaxCodeAttempts; attempts++ {
			candidate := GenerateRoomCode(m.roomCodeLength)
			if !m.exists(candidate) {
				code = candidate
				break
			}
		}
	}
	if code == "" {
		return "", ErrCodeExhausted
	}

	stored := room.Clone()
	stored.Normalize()
	stored.Code = code
	stored.Version = 1
	stored.UpdatedAt = time.Now()
	m.rooms[code] = stored

	m.logger.Info("room created", "roomCode", code)

	return code, nil
}

// Delete removes a room
func (m *Memory) Delete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[code]; !ok {
		return ErrRoomNotFound
	}
	delete(m.rooms, code)
	m.logger.Info("room deleted", "roomCode", code)
	return nil
}

// Count returns the number of stored rooms
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Close stops the cleanup loop
func (m *Memory) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *Memory) exists(code string) bool {
	_, ok := m.rooms[code]
	return ok
}

// cleanupLoop periodically cleans up stale rooms
func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.cleanupStaleRooms(time.Now())
		}
	}
}

// cleanupStaleRooms removes rooms nobody has touched for too long
func (m *Memory) cleanupStaleRooms(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	stale := make([]string, 0)
	for code, room := range m.rooms {
		if now.Sub(lastActivity(room)) > StaleRoomTimeout {
			stale = append(stale, code)
		}
	}

	for _, code := range stale {
		delete(m.rooms, code)
		m.logger.Info("stale room cleaned up", "roomCode", code)
	}
	return len(stale)
}

// lastActivity is the latest of the room's last write and any heartbeat
func lastActivity(room *domain.Room) time.Time {
	latest := room.UpdatedAt
	for _, p := range slices.Concat(room.Players, room.WaitingPlayers) {
		if p.LastSeen.After(latest) {
			latest = p.LastSeen
		}
	}
	return latest
}
