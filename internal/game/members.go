package game

import (
	"doodleduel/internal/domain"
)

// UpdateSettings changes the room settings while still in the lobby
func UpdateSettings(hostID string, settings domain.Settings) domain.Transform {
	return func(room *domain.Room) error {
		if !room.IsHost(hostID) {
			return domain.ErrNotHost
		}
		if room.Status != domain.StatusLobby {
			return domain.ErrInvalidPhase
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		room.Settings = settings
		return nil
	}
}

// Kick removes another player from the room (host only)
func Kick(hostID, targetID string) domain.Transform {
	return func(room *domain.Room) error {
		if !room.IsHost(hostID) {
			return domain.ErrNotHost
		}
		if hostID == targetID {
			return domain.ErrCannotKickSelf
		}
		return removeMember(room, targetID)
	}
}

// Leave removes the player from the room. Leaving twice is a no-op.
func Leave(playerID string) domain.Transform {
	return func(room *domain.Room) error {
		if !room.IsActive(playerID) && !room.IsWaiting(playerID) {
			return nil
		}
		return removeMember(room, playerID)
	}
}

// removeMember drops the player and completes the phase when the ones left
// have all submitted or voted.
func removeMember(room *domain.Room, playerID string) error {
	if err := room.RemoveMember(playerID); err != nil {
		return err
	}
	switch {
	case room.Status == domain.StatusDrawing && room.AllSubmitted():
		room.Status = domain.StatusVoting
	case room.Status == domain.StatusVoting && room.AllVoted():
		finishRound(room)
	}
	return nil
}
