// Package submit makes sure a player's drawing is transmitted at most once
// per round, whatever mix of timer expiry, "done" clicks and retries fires.
package submit

import (
	"context"
	"log/slog"
	"sync"
)

// Display is the submission state shown to the player
type Display string

const (
	DisplayDrawing    Display = "drawing"
	DisplaySubmitting Display = "submitting"
	DisplaySubmitted  Display = "submitted"
)

// SendFunc transmits the submission
type SendFunc func(ctx context.Context) error

// Guard serializes submission attempts for one player
type Guard struct {
	mu         sync.Mutex
	round      int
	inFlight   bool
	attempted  bool // an attempt started this round
	optimistic bool // a transmit succeeded this round
	logger     *slog.Logger
}

// NewGuard creates a new guard
func NewGuard(logger *slog.Logger) *Guard {
	return &Guard{logger: logger}
}

// Reset starts a new round. An attempt still in flight keeps its latch.
func (g *Guard) Reset(round int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.round == round {
		return
	}
	g.round = round
	g.attempted = false
	g.optimistic = false
}

// Submit runs send unless an attempt is in flight or the submission is
// already known, confirmed by the store or assumed locally. Dropped attempts
// are logged and return (false, nil). The latch is released once send
// settles, so a failed attempt can be retried.
func (g *Guard) Submit(ctx context.Context, confirmed bool, send SendFunc) (bool, error) {
	g.mu.Lock()
	if g.inFlight {
		g.mu.Unlock()
		g.logger.Debug("submission dropped, another attempt in flight", "round", g.round)
		return false, nil
	}
	if confirmed || g.optimistic {
		g.mu.Unlock()
		g.logger.Debug("submission dropped, already submitted", "round", g.round, "confirmed", confirmed)
		return false, nil
	}
	g.inFlight = true
	g.attempted = true
	round := g.round
	g.mu.Unlock()

	err := send(ctx)

	g.mu.Lock()
	g.inFlight = false
	if err == nil && g.round == round {
		g.optimistic = true
	}
	g.mu.Unlock()

	return true, err
}

// OptimisticSubmitted returns true once a transmit succeeded this round
func (g *Guard) OptimisticSubmitted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.optimistic
}

// InFlight returns true while an attempt is being transmitted
func (g *Guard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Display resolves what the player sees. A failed attempt keeps showing
// "submitting" rather than falling back to drawing.
func (g *Guard) Display(confirmed bool) Display {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case confirmed || g.optimistic:
		return DisplaySubmitted
	case g.attempted:
		return DisplaySubmitting
	default:
		return DisplayDrawing
	}
}
