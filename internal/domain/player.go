package domain

import "time"

// PlayerStatus represents a player's progress through the drawing phase
type PlayerStatus string

const (
	PlayerWaiting   PlayerStatus = "waiting"
	PlayerDrawing   PlayerStatus = "drawing"
	PlayerSubmitted PlayerStatus = "submitted"
)

// Player represents a participant in a room
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	XP       int       `json:"xp"`
	Level    int       `json:"level"`
	LastSeen time.Time `json:"lastSeen"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NewPlayer creates a new player with the given ID and name
func NewPlayer(id, name string) Player {
	return Player{
		ID:       id,
		Name:     name,
		Level:    1,
		JoinedAt: time.Now(),
	}
}

// PlayerState is the per-round state of an active player
type PlayerState struct {
	Status         PlayerStatus `json:"status"`
	TimerStartedAt *time.Time   `json:"timerStartedAt,omitempty"`
	DrawingURL     string       `json:"drawingUrl,omitempty"`
}

// NewPlayerState returns the state every player starts a round with
func NewPlayerState() PlayerState {
	return PlayerState{Status: PlayerWaiting}
}

// HasSubmitted returns true once the player's drawing is stored
func (s PlayerState) HasSubmitted() bool {
	return s.Status == PlayerSubmitted
}

// HasStartedTimer returns true if the player's countdown start is confirmed
func (s PlayerState) HasStartedTimer() bool {
	return s.TimerStartedAt != nil
}

func (s PlayerState) clone() PlayerState {
	if s.TimerStartedAt != nil {
		t := *s.TimerStartedAt
		s.TimerStartedAt = &t
	}
	return s
}
