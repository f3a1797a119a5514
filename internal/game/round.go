// Package game holds the room transforms that move a room through a round.
// Every transform is idempotent or phase-guarded so that replaying it against
// a newer snapshot is harmless.
package game

import (
	"strings"
	"time"

	"doodleduel/internal/domain"
	"doodleduel/internal/queue"
	"doodleduel/internal/sabotage"
)

// StartGame moves the lobby into the first round (host only)
func StartGame(hostID string) domain.Transform {
	return func(room *domain.Room) error {
		if !room.IsHost(hostID) {
			return domain.ErrNotHost
		}
		if room.Status != domain.StatusLobby {
			return domain.ErrInvalidPhase
		}
		if len(room.Players)+len(room.WaitingPlayers) < domain.MinPlayers {
			return domain.ErrNotEnoughPlayers
		}

		room.RoundNumber = 0
		room.ImageURL = ""
		startRound(room)
		return nil
	}
}

// SubmitImage stores the reference image and opens the round for drawing
func SubmitImage(playerID, imageURL string) domain.Transform {
	return func(room *domain.Room) error {
		if room.Status != domain.StatusUploading {
			return domain.ErrInvalidPhase
		}
		if room.UploaderID != playerID && !room.IsHost(playerID) {
			return domain.ErrNotUploader
		}
		imageURL = strings.TrimSpace(imageURL)
		if imageURL == "" {
			return domain.ErrEmptyImage
		}

		room.ImageURL = imageURL
		beginDrawing(room)
		return nil
	}
}

// SelectSabotage records the saboteur's choice and starts drawing
func SelectSabotage(saboteurID, targetID string, effect domain.SabotageEffect) domain.Transform {
	return func(room *domain.Room) error {
		if err := sabotage.Assign(room, saboteurID, targetID, effect); err != nil {
			return err
		}
		enterDrawing(room)
		return nil
	}
}

// SkipSabotage lets the saboteur pass on this round
func SkipSabotage(saboteurID string) domain.Transform {
	return func(room *domain.Room) error {
		if room.Status != domain.StatusSabotageSelection {
			return domain.ErrInvalidPhase
		}
		if room.SaboteurID != saboteurID && !room.IsHost(saboteurID) {
			return domain.ErrNotSaboteur
		}
		enterDrawing(room)
		return nil
	}
}

// Ready confirms the player's timer start. The first write wins; later
// writes keep the original start so the deadline never moves.
func Ready(playerID string, at time.Time) domain.Transform {
	return func(room *domain.Room) error {
		if room.Status != domain.StatusDrawing {
			return domain.ErrInvalidPhase
		}
		if !room.IsActive(playerID) {
			return domain.ErrNotActive
		}

		st := room.State(playerID)
		if st.HasStartedTimer() || st.HasSubmitted() {
			return nil
		}
		at = at.UTC()
		st.Status = domain.PlayerDrawing
		st.TimerStartedAt = &at
		room.PlayerStates[playerID] = st
		return nil
	}
}

// Advance moves a finished round forward: into the next round, or into the
// final ranking once the configured number of rounds has been played.
func Advance(hostID string) domain.Transform {
	return func(room *domain.Room) error {
		if !room.IsHost(hostID) {
			return domain.ErrNotHost
		}
		if room.Status != domain.StatusResults {
			return domain.ErrInvalidPhase
		}

		if room.RoundNumber >= room.Settings.TotalRounds {
			room.Status = domain.StatusFinal
			return nil
		}
		startRound(room)
		return nil
	}
}

// ShowRewards moves the final ranking into the rewards recap
func ShowRewards(hostID string) domain.Transform {
	return func(room *domain.Room) error {
		if !room.IsHost(hostID) {
			return domain.ErrNotHost
		}
		if !room.Status.CanTransitionTo(domain.StatusRewards) {
			return domain.ErrInvalidTransition
		}
		room.Status = domain.StatusRewards
		return nil
	}
}

// ReturnToLobby resets the room for a replay. Queued players join the lobby.
func ReturnToLobby(hostID string) domain.Transform {
	return func(room *domain.Room) error {
		if !room.IsHost(hostID) {
			return domain.ErrNotHost
		}
		if room.Status == domain.StatusLobby {
			return nil
		}

		queue.Promote(room)
		room.ResetRoundState()
		room.Status = domain.StatusLobby
		room.RoundNumber = 0
		room.ImageURL = ""
		room.RoundResults = make([]domain.RoundResult, 0)
		room.Scores = make(map[string]int)
		return nil
	}
}

// startRound crosses a round boundary: waiting players are promoted, every
// per-round field is cleared, and the new round opens on upload or drawing.
func startRound(room *domain.Room) {
	previous, hadPrevious := room.ResultFor(room.RoundNumber)

	room.RoundNumber++
	queue.Promote(room)
	room.ResetRoundState()

	if hadPrevious {
		if last, ok := previous.Last(); ok && room.IsActive(last) {
			room.TimeBonusPlayerID = last
		}
	}

	if len(room.Players) > 0 {
		room.UploaderID = room.Players[(room.RoundNumber-1)%len(room.Players)].ID
	}

	if room.Settings.UploadEveryRound || room.ImageURL == "" {
		room.ImageURL = ""
		room.Status = domain.StatusUploading
		return
	}
	beginDrawing(room)
}

// beginDrawing routes through sabotage selection when the round is big enough
func beginDrawing(room *domain.Room) {
	if len(room.Players) >= sabotage.MinPlayers {
		room.SaboteurID = sabotage.PickSaboteur(room)
		room.Status = domain.StatusSabotageSelection
		return
	}
	enterDrawing(room)
}

func enterDrawing(room *domain.Room) {
	for _, p := range room.Players {
		if _, ok := room.PlayerStates[p.ID]; !ok {
			room.PlayerStates[p.ID] = domain.NewPlayerState()
		}
	}
	room.Status = domain.StatusDrawing
}
