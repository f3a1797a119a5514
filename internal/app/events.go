package app

import (
	"time"

	"doodleduel/internal/phase"
	"doodleduel/internal/reward"
	"doodleduel/internal/sabotage"
)

// EventType represents the type of session event
type EventType string

const (
	EventSnapshot         EventType = "SNAPSHOT"
	EventScreenChanged    EventType = "SCREEN_CHANGED"
	EventRoundStarted     EventType = "ROUND_STARTED"
	EventPromoted         EventType = "PROMOTED"
	EventCanvasCleared    EventType = "CANVAS_CLEARED"
	EventForceJoinOffered EventType = "FORCE_JOIN_OFFERED"
	EventSabotaged        EventType = "SABOTAGED"
	EventRewardsGranted   EventType = "REWARDS_GRANTED"
	EventSubmissionFailed EventType = "SUBMISSION_FAILED"
	EventKicked           EventType = "KICKED"
	EventRoomClosed       EventType = "ROOM_CLOSED"
	EventRoomUnavailable  EventType = "ROOM_UNAVAILABLE"
)

// Event is something the UI should react to
type Event struct {
	Type      EventType   `json:"type"`
	RoomCode  string      `json:"roomCode"`
	View      View        `json:"view"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ScreenChangedPayload is sent when the derived screen changes
type ScreenChangedPayload struct {
	From phase.Screen `json:"from"`
	To   phase.Screen `json:"to"`
}

// SabotagedPayload is sent once to the sabotage target
type SabotagedPayload struct {
	Effects sabotage.Effects `json:"effects"`
}

// RewardsPayload carries one round-end or game-end grant
type RewardsPayload struct {
	Grant   reward.Grant   `json:"grant"`
	Profile reward.Profile `json:"profile"`
}

// RoomClosedPayload is sent when the host ended the game
type RoomClosedPayload struct {
	ReturnIn time.Duration `json:"returnIn"`
}
