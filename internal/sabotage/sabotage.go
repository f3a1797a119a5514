// Package sabotage assigns a disruptive effect to one player per round and
// derives what that effect means for the target's timer and canvas.
package sabotage

import (
	"doodleduel/internal/domain"
)

const (
	// MinPlayers is the smallest round that gets a sabotage selection
	MinPlayers = 4

	// PenaltyPercent is the share of the base timer a subtract_time target loses
	PenaltyPercent = 20

	// MinPaletteSize is the fewest colors reduce_colors leaves
	MinPaletteSize = 3
)

// Palette is the full set of colors offered to unaffected players
var Palette = []string{
	"#000000", "#ffffff", "#e53935", "#fb8c00",
	"#fdd835", "#43a047", "#00acc1", "#1e88e5",
	"#5e35b1", "#d81b60", "#6d4c41", "#9e9e9e",
}

// Effects are the derived consequences for one player
type Effects struct {
	TimePenalty int      // seconds
	Palette     []string // colors offered
	Distortion  int      // 0 means none
}

// PickSaboteur chooses the saboteur for the current round by rotating through
// the active players, skipping the uploader when possible.
func PickSaboteur(room *domain.Room) string {
	n := len(room.Players)
	if n == 0 {
		return ""
	}
	for offset := 0; offset < n; offset++ {
		candidate := room.Players[(room.RoundNumber+offset)%n].ID
		if candidate != room.UploaderID || n == 1 {
			return candidate
		}
	}
	return ""
}

// Assign stores the saboteur's choice on the room
func Assign(room *domain.Room, saboteurID, targetID string, effect domain.SabotageEffect) error {
	if room.Status != domain.StatusSabotageSelection {
		return domain.ErrInvalidPhase
	}
	if room.SaboteurID != saboteurID {
		return domain.ErrNotSaboteur
	}
	if targetID == saboteurID || !room.IsActive(targetID) {
		return domain.ErrInvalidTarget
	}
	if err := effect.Validate(); err != nil {
		return err
	}

	room.SabotageTargetID = targetID
	room.SabotageEffect = &effect
	room.SabotageTriggered = false
	return nil
}

// Active returns the effect aimed at the player during drawing
func Active(room *domain.Room, playerID string) (domain.SabotageEffect, bool) {
	if room == nil || room.Status != domain.StatusDrawing {
		return domain.SabotageEffect{}, false
	}
	if room.SabotageEffect == nil || room.SabotageTargetID != playerID {
		return domain.SabotageEffect{}, false
	}
	return *room.SabotageEffect, true
}

// TimePenalty returns ceil(base * 20%) seconds
func TimePenalty(base int) int {
	if base <= 0 {
		return 0
	}
	return (base*PenaltyPercent + 99) / 100
}

// ReducedPalette trims the palette by intensity, keeping at least MinPaletteSize colors
func ReducedPalette(intensity int) []string {
	size := len(Palette) - intensity
	if size < MinPaletteSize {
		size = MinPaletteSize
	}
	out := make([]string, size)
	copy(out, Palette[:size])
	return out
}

// For derives the effects a player is subject to. Players who are not the
// target always get the full palette and no penalty.
func For(room *domain.Room, playerID string) Effects {
	fx := Effects{Palette: Palette}
	effect, ok := Active(room, playerID)
	if !ok {
		return fx
	}

	switch effect.Type {
	case domain.EffectSubtractTime:
		fx.TimePenalty = TimePenalty(room.Settings.TimerDuration)
	case domain.EffectReduceColors:
		fx.Palette = ReducedPalette(effect.Intensity)
	case domain.EffectVisualDistortion:
		fx.Distortion = effect.Intensity
	}
	return fx
}

// NeedsTrigger reports whether the target's client still has to announce the effect
func NeedsTrigger(room *domain.Room, playerID string) bool {
	_, ok := Active(room, playerID)
	return ok && !room.SabotageTriggered
}

// Trigger marks the effect as triggered by its target. Repeats are no-ops.
func Trigger(playerID string) domain.Transform {
	return func(room *domain.Room) error {
		if _, ok := Active(room, playerID); !ok {
			return domain.ErrInvalidPhase
		}
		room.SabotageTriggered = true
		return nil
	}
}
