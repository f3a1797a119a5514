package sqlitestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doodleduel/internal/domain"
	"doodleduel/internal/store"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "rooms.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newRoom() *domain.Room {
	return domain.NewRoom(domain.NewPlayer("host", "Host"), domain.DefaultSettings())
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("", slog.Default())
	assert.Error(t, err)
}

func TestCreateGetRoundTrip(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	code, err := s.Create(ctx, newRoom())
	require.NoError(t, err)

	room, err := s.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, code, room.Code)
	assert.Equal(t, int64(1), room.Version)
	assert.Equal(t, []string{"host"}, room.PlayerIDs())
}

func TestCreateKeepsRequestedCode(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	room := newRoom()
	room.Code = "ABCDEF"
	code, err := s.Create(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", code)

	// a taken code falls back to a generated one
	again, err := s.Create(ctx, room)
	require.NoError(t, err)
	assert.NotEqual(t, "ABCDEF", again)
}

func TestUpdate(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	code, err := s.Create(ctx, newRoom())
	require.NoError(t, err)

	updated, err := s.Update(ctx, code, func(r *domain.Room) error {
		r.Settings.TimerDuration = 30
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	room, err := s.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 30, room.Settings.TimerDuration)
	assert.Equal(t, int64(2), room.Version)
}

func TestUpdateTransformError(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	code, err := s.Create(ctx, newRoom())
	require.NoError(t, err)

	_, err = s.Update(ctx, code, func(r *domain.Room) error { return domain.ErrNotHost })
	assert.True(t, errors.Is(err, domain.ErrNotHost))

	room, err := s.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), room.Version)
}

func TestUpdateMissing(t *testing.T) {
	s := openTempStore(t)
	_, err := s.Update(context.Background(), "NOPE99", func(r *domain.Room) error { return nil })
	assert.ErrorIs(t, err, store.ErrRoomNotFound)
}

func TestHeartbeat(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	code, err := s.Create(ctx, newRoom())
	require.NoError(t, err)

	require.NoError(t, s.Heartbeat(ctx, code, "host"))
	require.NoError(t, s.Heartbeat(ctx, code, "host"))

	room, err := s.Get(ctx, code)
	require.NoError(t, err)
	host, err := room.GetPlayer("host")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), host.LastSeen, time.Minute)

	assert.ErrorIs(t, s.Heartbeat(ctx, "NOPE99", "host"), store.ErrRoomNotFound)
}

func TestDeleteAndStale(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	code, err := s.Create(ctx, newRoom())
	require.NoError(t, err)

	n, err := s.DeleteStale(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Delete(ctx, code))
	assert.ErrorIs(t, s.Delete(ctx, code), store.ErrRoomNotFound)

	_, err = s.Get(ctx, code)
	assert.ErrorIs(t, err, store.ErrRoomNotFound)
}
