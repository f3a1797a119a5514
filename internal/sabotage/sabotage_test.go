package sabotage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doodleduel/internal/domain"
)

func selectionRoom() *domain.Room {
	room := domain.NewRoom(domain.NewPlayer("a", "A"), domain.DefaultSettings())
	for _, id := range []string{"b", "c", "d"} {
		room.Players = append(room.Players, domain.NewPlayer(id, id))
		room.PlayerStates[id] = domain.NewPlayerState()
	}
	room.Status = domain.StatusSabotageSelection
	room.RoundNumber = 1
	room.UploaderID = "b"
	room.SaboteurID = "c"
	return room
}

func TestTimePenalty(t *testing.T) {
	assert.Equal(t, 1, TimePenalty(5))
	assert.Equal(t, 3, TimePenalty(15))
	assert.Equal(t, 5, TimePenalty(21))
	assert.Equal(t, 12, TimePenalty(60))
	assert.Zero(t, TimePenalty(0))
}

func TestReducedPalette(t *testing.T) {
	assert.Len(t, ReducedPalette(1), len(Palette)-1)
	assert.Len(t, ReducedPalette(9), MinPaletteSize)
	assert.Len(t, ReducedPalette(domain.MaxIntensity), MinPaletteSize)

	p := ReducedPalette(2)
	p[0] = "#123456"
	assert.Equal(t, "#000000", Palette[0])
}

func TestPickSaboteurSkipsUploader(t *testing.T) {
	room := selectionRoom()
	// Rotation lands on b for round 1, who uploaded
	assert.Equal(t, "c", PickSaboteur(room))

	room.RoundNumber = 2
	assert.Equal(t, "c", PickSaboteur(room))

	room.RoundNumber = 3
	assert.Equal(t, "d", PickSaboteur(room))

	room.Players = nil
	assert.Empty(t, PickSaboteur(room))
}

func TestAssign(t *testing.T) {
	valid := domain.SabotageEffect{Type: domain.EffectReduceColors, Intensity: 5}

	tests := []struct {
		name      string
		saboteur  string
		target    string
		effect    domain.SabotageEffect
		mutate    func(*domain.Room)
		wantError error
	}{
		{name: "wrong phase", saboteur: "c", target: "a", effect: valid,
			mutate: func(r *domain.Room) { r.Status = domain.StatusDrawing }, wantError: domain.ErrInvalidPhase},
		{name: "not saboteur", saboteur: "a", target: "b", effect: valid, wantError: domain.ErrNotSaboteur},
		{name: "self target", saboteur: "c", target: "c", effect: valid, wantError: domain.ErrInvalidTarget},
		{name: "unknown target", saboteur: "c", target: "zz", effect: valid, wantError: domain.ErrInvalidTarget},
		{name: "bad effect", saboteur: "c", target: "a",
			effect: domain.SabotageEffect{Type: "confetti", Intensity: 5}, wantError: domain.ErrInvalidEffect},
		{name: "bad intensity", saboteur: "c", target: "a",
			effect: domain.SabotageEffect{Type: domain.EffectSubtractTime, Intensity: 11}, wantError: domain.ErrInvalidEffect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := selectionRoom()
			if tt.mutate != nil {
				tt.mutate(room)
			}
			assert.ErrorIs(t, Assign(room, tt.saboteur, tt.target, tt.effect), tt.wantError)
			assert.Nil(t, room.SabotageEffect)
		})
	}

	room := selectionRoom()
	room.SabotageTriggered = true
	require.NoError(t, Assign(room, "c", "a", valid))
	assert.Equal(t, "a", room.SabotageTargetID)
	assert.Equal(t, valid, *room.SabotageEffect)
	assert.False(t, room.SabotageTriggered)
}

func TestEffectsFor(t *testing.T) {
	room := selectionRoom()
	require.NoError(t, Assign(room, "c", "a", domain.SabotageEffect{Type: domain.EffectReduceColors, Intensity: 4}))

	// Nothing applies before drawing
	assert.Equal(t, Palette, For(room, "a").Palette)

	room.Status = domain.StatusDrawing
	fx := For(room, "a")
	assert.Len(t, fx.Palette, len(Palette)-4)
	assert.Zero(t, fx.TimePenalty)
	assert.Equal(t, Effects{Palette: Palette}, For(room, "b"))

	room.SabotageEffect = &domain.SabotageEffect{Type: domain.EffectVisualDistortion, Intensity: 7}
	assert.Equal(t, 7, For(room, "a").Distortion)

	room.SabotageEffect = &domain.SabotageEffect{Type: domain.EffectSubtractTime, Intensity: 1}
	assert.Equal(t, 3, For(room, "a").TimePenalty)
}

func TestTriggerOnlyOnce(t *testing.T) {
	room := selectionRoom()
	require.NoError(t, Assign(room, "c", "a", domain.SabotageEffect{Type: domain.EffectSubtractTime, Intensity: 2}))
	assert.False(t, NeedsTrigger(room, "a"))

	room.Status = domain.StatusDrawing
	assert.True(t, NeedsTrigger(room, "a"))
	assert.False(t, NeedsTrigger(room, "b"))

	assert.ErrorIs(t, Trigger("b")(room), domain.ErrInvalidPhase)
	require.NoError(t, Trigger("a")(room))
	assert.True(t, room.SabotageTriggered)
	assert.False(t, NeedsTrigger(room, "a"))
	require.NoError(t, Trigger("a")(room))
}
