package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Countdown fires its callback exactly once, when the wall-clock deadline
// passes or Done is called, whichever comes first.
type Countdown struct {
	mu       sync.Mutex
	deadline time.Time
	onExpire func()
	fired    atomic.Bool
	now      func() time.Time
}

// NewCountdown creates a countdown. now defaults to time.Now.
func NewCountdown(deadline time.Time, onExpire func(), now func() time.Time) *Countdown {
	if now == nil {
		now = time.Now
	}
	return &Countdown{deadline: deadline, onExpire: onExpire, now: now}
}

// SetDeadline moves the deadline. It has no effect once fired.
func (c *Countdown) SetDeadline(deadline time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = deadline
}

// Deadline returns the current deadline
func (c *Countdown) Deadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline
}

// Remaining returns the time left, never negative
func (c *Countdown) Remaining() time.Duration {
	left := c.Deadline().Sub(c.now())
	if left < 0 {
		return 0
	}
	return left
}

// Tick checks the deadline and fires if it has passed. It returns true only
// for the call that fired.
func (c *Countdown) Tick() bool {
	if c.fired.Load() {
		return false
	}
	if c.now().Before(c.Deadline()) {
		return false
	}
	return c.fire()
}

// Done fires immediately, as when the player presses "done"
func (c *Countdown) Done() bool {
	return c.fire()
}

// Fired returns true once the callback has run
func (c *Countdown) Fired() bool {
	return c.fired.Load()
}

func (c *Countdown) fire() bool {
	if !c.fired.CompareAndSwap(false, true) {
		return false
	}
	if c.onExpire != nil {
		c.onExpire()
	}
	return true
}

// Run ticks until the countdown fires or ctx ends
func (c *Countdown) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if c.Fired() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}
