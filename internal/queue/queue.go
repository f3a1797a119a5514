// Package queue decides whether a player is playing, queued or spectating,
// and moves players between the waiting list and the active list.
package queue

import (
	"doodleduel/internal/domain"
)

// Resolve returns the local player's role for the current snapshot
func Resolve(room *domain.Room, playerID string) domain.Role {
	if room == nil {
		return domain.RoleAbsent
	}
	if room.IsActive(playerID) {
		return domain.RoleActive
	}
	if room.IsWaiting(playerID) {
		if room.Status.InRound() {
			return domain.RoleSpectating
		}
		return domain.RoleQueued
	}
	return domain.RoleAbsent
}

// Join adds a player to the room. Outside the lobby the player is queued for
// the next round boundary instead of entering the running round. Joining
// twice is a no-op.
func Join(player domain.Player) domain.Transform {
	return func(room *domain.Room) error {
		if room.IsActive(player.ID) || room.IsWaiting(player.ID) {
			return nil
		}
		if room.MemberCount() >= domain.MaxPlayers {
			return domain.ErrRoomFull
		}

		if room.Status == domain.StatusLobby {
			room.Players = append(room.Players, player)
			room.PlayerStates[player.ID] = domain.NewPlayerState()
		} else {
			room.WaitingPlayers = append(room.WaitingPlayers, player)
		}

		if room.HostID == "" {
			room.HostID = player.ID
		}
		return nil
	}
}

// Promote moves every waiting player into the active list with a fresh
// round state. It is only called at a round boundary or on reset to lobby.
func Promote(room *domain.Room) []string {
	promoted := make([]string, 0, len(room.WaitingPlayers))
	for _, p := range room.WaitingPlayers {
		if room.IsActive(p.ID) {
			continue
		}
		room.Players = append(room.Players, p)
		room.PlayerStates[p.ID] = domain.NewPlayerState()
		promoted = append(promoted, p.ID)
	}
	room.WaitingPlayers = make([]domain.Player, 0)
	return promoted
}

// ForceJoin lets a queued player enter the current round without waiting for
// the boundary. The new state matches what the running phase expects.
func ForceJoin(playerID string) domain.Transform {
	return func(room *domain.Room) error {
		if room.IsActive(playerID) {
			return nil
		}
		i := room.WaitingIndex(playerID)
		if i < 0 {
			return domain.ErrNotWaiting
		}

		player := room.WaitingPlayers[i]
		room.WaitingPlayers = append(room.WaitingPlayers[:i], room.WaitingPlayers[i+1:]...)
		room.Players = append(room.Players, player)
		room.PlayerStates[playerID] = EntryState(room.Status)
		return nil
	}
}

// EntryState returns the round state a late joiner gets for the given status.
// During voting there is nothing left to draw, so they count as submitted.
func EntryState(status domain.Status) domain.PlayerState {
	st := domain.NewPlayerState()
	if status == domain.StatusVoting {
		st.Status = domain.PlayerSubmitted
	}
	return st
}
