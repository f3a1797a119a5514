package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doodleduel/internal/domain"
)

func newMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(m.Close)
	return m
}

func newRoom() *domain.Room {
	return domain.NewRoom(domain.NewPlayer("host", "Host"), domain.DefaultSettings())
}

func TestGenerateRoomCode(t *testing.T) {
	code := GenerateRoomCode(0)
	assert.Len(t, code, DefaultRoomCodeLength)
	for _, c := range code {
		assert.Contains(t, RoomCodeChars, string(c))
	}
	assert.Len(t, GenerateRoomCode(4), 4)
}

func TestMemoryCreateGet(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()

	code, err := m.Create(ctx, newRoom())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count())

	room, err := m.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, code, room.Code)
	assert.Equal(t, int64(1), room.Version)

	_, err = m.Get(ctx, "NOPE99")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	code, err := m.Create(ctx, newRoom())
	require.NoError(t, err)

	room, err := m.Get(ctx, code)
	require.NoError(t, err)
	room.Players[0].Name = "mutated"
	room.Scores["host"] = 99

	again, err := m.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "Host", again.Players[0].Name)
	assert.Empty(t, again.Scores)
}

func TestMemoryUpdate(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	code, err := m.Create(ctx, newRoom())
	require.NoError(t, err)

	updated, err := m.Update(ctx, code, func(r *domain.Room) error {
		r.Settings.TotalRounds = 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = m.Update(ctx, code, func(r *domain.Room) error {
		r.Settings.TotalRounds = 7
		return domain.ErrNotHost
	})
	assert.ErrorIs(t, err, domain.ErrNotHost)

	room, err := m.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 2, room.Settings.TotalRounds)
	assert.Equal(t, int64(2), room.Version)
}

func TestMemoryHeartbeatAndDelete(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	code, err := m.Create(ctx, newRoom())
	require.NoError(t, err)

	require.NoError(t, m.Heartbeat(ctx, code, "host"))
	require.NoError(t, m.Heartbeat(ctx, code, "stranger"))

	room, err := m.Get(ctx, code)
	require.NoError(t, err)
	assert.False(t, room.Players[0].LastSeen.IsZero())

	require.NoError(t, m.Delete(ctx, code))
	assert.ErrorIs(t, m.Delete(ctx, code), ErrRoomNotFound)
	assert.ErrorIs(t, m.Heartbeat(ctx, code, "host"), ErrRoomNotFound)
}

func TestMemoryCleanupStaleRooms(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()
	stale, err := m.Create(ctx, newRoom())
	require.NoError(t, err)
	fresh, err := m.Create(ctx, newRoom())
	require.NoError(t, err)
	require.NoError(t, m.Heartbeat(ctx, fresh, "host"))

	// move the stale room's activity into the past
	m.mu.Lock()
	m.rooms[stale].UpdatedAt = time.Now().Add(-3 * time.Hour)
	m.rooms[stale].Players[0].LastSeen = time.Time{}
	m.rooms[fresh].UpdatedAt = time.Now().Add(-3 * time.Hour)
	m.mu.Unlock()

	removed := m.cleanupStaleRooms(time.Now())
	assert.Equal(t, 1, removed)

	_, err = m.Get(ctx, stale)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = m.Get(ctx, fresh)
	assert.NoError(t, err)
}

func TestMemoryContextCancelled(t *testing.T) {
	m := newMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Get(ctx, "ANY")
	assert.ErrorIs(t, err, context.Canceled)
}
