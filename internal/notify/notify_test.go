package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherDelivers(t *testing.T) {
	n := new(mockNotifier)
	first := Notification{Kind: KindDrawingStart, PlayerID: "p1", Round: 1}
	second := Notification{Kind: KindVotingStart, PlayerID: "p1", Round: 1}
	n.On("Notify", first).Return(nil).Once()
	n.On("Notify", second).Return(errors.New("offline")).Once()

	d := NewDispatcher(n, discard())
	assert.True(t, d.Send(first))
	assert.True(t, d.Send(second))
	d.Close()

	n.AssertExpectations(t)
}

func TestDispatcherAfterClose(t *testing.T) {
	n := new(mockNotifier)
	d := NewDispatcher(n, discard())
	d.Close()
	d.Close()

	assert.False(t, d.Send(Notification{Kind: KindGameOver}))
	n.AssertNotCalled(t, "Notify", mock.Anything)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	err := l.Notify(context.Background(), Notification{Kind: KindUploadTurn, RoomCode: "ABC123", PlayerID: "p1"})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "kind=upload_turn")
	assert.Contains(t, buf.String(), "roomCode=ABC123")
}
