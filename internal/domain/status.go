package domain

// Status represents the current phase of a room
type Status string

const (
	StatusLobby             Status = "lobby"              // Waiting for players to join
	StatusUploading         Status = "uploading"          // Uploader picks the reference image
	StatusSabotageSelection Status = "sabotage-selection" // Saboteur picks a target and effect
	StatusDrawing           Status = "drawing"            // Everyone draws against their own timer
	StatusVoting            Status = "voting"             // Everyone votes for a peer
	StatusResults           Status = "results"            // Round ranking is shown
	StatusFinal             Status = "final"              // Game ranking is shown
	StatusRewards           Status = "rewards"            // Optional rewards recap
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []Status{
	StatusLobby,
	StatusUploading,
	StatusSabotageSelection,
	StatusDrawing,
	StatusVoting,
	StatusResults,
	StatusFinal,
	StatusRewards,
}

var validTransitions = map[Status][]Status{
	StatusLobby:             {StatusUploading},
	StatusUploading:         {StatusSabotageSelection, StatusDrawing},
	StatusSabotageSelection: {StatusDrawing},
	StatusDrawing:           {StatusVoting},
	StatusVoting:            {StatusResults},
	StatusResults:           {StatusUploading, StatusSabotageSelection, StatusDrawing, StatusFinal},
	StatusFinal:             {StatusRewards, StatusLobby},
	StatusRewards:           {StatusLobby},
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known statuses
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// InRound reports whether a round is being played (upload through voting)
func (s Status) InRound() bool {
	switch s {
	case StatusUploading, StatusSabotageSelection, StatusDrawing, StatusVoting:
		return true
	}
	return false
}

// CanTransitionTo checks if a transition from current status to target status is valid.
// The host may always reset a room back to the lobby.
func (s Status) CanTransitionTo(target Status) bool {
	if target == StatusLobby && s.IsValid() {
		return true
	}

	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}
