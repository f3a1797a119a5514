// Package notify delivers fire-and-forget player notifications. Delivery
// failures are logged and never reach the game flow.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind names what the notification is about
type Kind string

const (
	KindUploadTurn   Kind = "upload_turn"
	KindDrawingStart Kind = "drawing_start"
	KindVotingStart  Kind = "voting_start"
	KindRoundResults Kind = "round_results"
	KindGameOver     Kind = "game_over"
)

// Notification is one message for one player
type Notification struct {
	Kind     Kind   `json:"kind"`
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Round    int    `json:"round"`
	Message  string `json:"message"`
}

// Notifier delivers a notification
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

const (
	defaultQueueSize = 32
	defaultTimeout   = 3 * time.Second
)

// Dispatcher queues notifications for a single background sender
type Dispatcher struct {
	notifier Notifier
	queue    chan Notification
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts a dispatcher in front of notifier
func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		notifier: notifier,
		queue:    make(chan Notification, defaultQueueSize),
		timeout:  defaultTimeout,
		logger:   logger,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Send queues n without blocking; it is dropped when the queue is full
func (d *Dispatcher) Send(n Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}
	select {
	case d.queue <- n:
		return true
	default:
		d.logger.Warn("notification queue full, dropping", "kind", n.Kind, "playerID", n.PlayerID)
		return false
	}
}

// Close stops accepting notifications and waits for queued ones to go out
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for n := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.notifier.Notify(ctx, n); err != nil {
			d.logger.Debug("notification failed", "kind", n.Kind, "playerID", n.PlayerID, "error", err)
		}
		cancel()
	}
}

// LogNotifier writes notifications to the log
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier
func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	l.Logger.Info("notification",
		"kind", n.Kind,
		"roomCode", n.RoomCode,
		"playerID", n.PlayerID,
		"round", n.Round,
		"message", n.Message,
	)
	return nil
}
