// Package timer computes per-player drawing deadlines and runs countdowns
// against wall-clock deadlines.
package timer

import (
	"time"

	"doodleduel/internal/domain"
	"doodleduel/internal/sabotage"
)

const (
	// BonusSeconds is added for the round's time-bonus holder
	BonusSeconds = 5

	// JitterThreshold is the smallest deadline change shown to the player
	JitterThreshold = 500 * time.Millisecond
)

// EffectiveSeconds returns base + bonus - penalty for one player. The result
// is private to that player; other players' timers never see it.
func EffectiveSeconds(room *domain.Room, playerID string) int {
	base := room.Settings.TimerDuration
	seconds := base
	if room.TimeBonusPlayerID != "" && room.TimeBonusPlayerID == playerID {
		seconds += BonusSeconds
	}
	if effect, ok := sabotage.Active(room, playerID); ok && effect.Type == domain.EffectSubtractTime {
		seconds -= sabotage.TimePenalty(base)
	}
	if seconds < 0 {
		seconds = 0
	}
	return seconds
}

// EffectiveDuration is EffectiveSeconds as a duration
func EffectiveDuration(room *domain.Room, playerID string) time.Duration {
	return time.Duration(EffectiveSeconds(room, playerID)) * time.Second
}

// Deadline returns when the player's countdown expires. The confirmed start
// stored on the room wins over the local optimistic start.
func Deadline(room *domain.Room, playerID string, start Tracked[time.Time]) (time.Time, bool) {
	if confirmed := room.State(playerID).TimerStartedAt; confirmed != nil {
		start.Confirm(*confirmed)
	}
	at, ok := start.Resolve()
	if !ok {
		return time.Time{}, false
	}
	return at.Add(EffectiveDuration(room, playerID)), true
}

// Debouncer holds the deadline currently displayed and only replaces it when
// a new value moves by more than the threshold.
type Debouncer struct {
	threshold time.Duration
	shown     time.Time
	has       bool
}

// NewDebouncer creates a debouncer with the given threshold
func NewDebouncer(threshold time.Duration) *Debouncer {
	return &Debouncer{threshold: threshold}
}

// Update offers a new deadline and returns the one to display
func (d *Debouncer) Update(deadline time.Time) time.Time {
	if !d.has {
		d.shown, d.has = deadline, true
		return d.shown
	}
	delta := deadline.Sub(d.shown)
	if delta < 0 {
		delta = -delta
	}
	if delta > d.threshold {
		d.shown = deadline
	}
	return d.shown
}

// Shown returns the displayed deadline, if any
func (d *Debouncer) Shown() (time.Time, bool) {
	return d.shown, d.has
}

// Reset forgets the displayed deadline
func (d *Debouncer) Reset() {
	d.shown, d.has = time.Time{}, false
}
