package game

import (
	"sort"

	"doodleduel/internal/domain"
)

// PointsPerVote is what each received vote adds to a player's score
const PointsPerVote = 100

// SubmitDrawing stores the player's drawing. Once every active player has
// submitted, the room moves on to voting.
func SubmitDrawing(playerID, drawingURL string) domain.Transform {
	return func(room *domain.Room) error {
		if room.Status != domain.StatusDrawing {
			return domain.ErrInvalidPhase
		}
		if !room.IsActive(playerID) {
			return domain.ErrNotActive
		}

		st := room.State(playerID)
		if st.HasSubmitted() {
			return domain.ErrAlreadySubmitted
		}
		st.Status = domain.PlayerSubmitted
		st.DrawingURL = drawingURL
		room.PlayerStates[playerID] = st

		if room.AllSubmitted() {
			room.Status = domain.StatusVoting
		}
		return nil
	}
}

// EndDrawing closes drawing for everyone (host only), e.g. when a player
// disconnected and will never submit.
func EndDrawing(hostID string) domain.Transform {
	return func(room *domain.Room) error {
		if !room.IsHost(hostID) {
			return domain.ErrNotHost
		}
		if room.Status != domain.StatusDrawing {
			return domain.ErrInvalidPhase
		}
		room.Status = domain.StatusVoting
		return nil
	}
}

// CastVote records the voter's pick. Re-sending the same vote is a no-op.
// The last vote closes the round.
func CastVote(voterID, targetID string) domain.Transform {
	return func(room *domain.Room) error {
		if room.Status != domain.StatusVoting {
			return domain.ErrInvalidPhase
		}
		if !room.IsActive(voterID) {
			return domain.ErrNotActive
		}
		if voterID == targetID {
			return domain.ErrCannotVoteSelf
		}
		if !room.IsActive(targetID) {
			return domain.ErrInvalidTarget
		}
		if existing, ok := room.Votes[voterID]; ok {
			if existing == targetID {
				return nil
			}
			return domain.ErrAlreadyVoted
		}

		room.Votes[voterID] = targetID

		if room.AllVoted() {
			finishRound(room)
		}
		return nil
	}
}

// CloseVoting ends voting with whatever votes are in (host only)
func CloseVoting(hostID string) domain.Transform {
	return func(room *domain.Room) error {
		if !room.IsHost(hostID) {
			return domain.ErrNotHost
		}
		if room.Status != domain.StatusVoting {
			return domain.ErrInvalidPhase
		}
		finishRound(room)
		return nil
	}
}

// Tally ranks every active player by votes received. Ties keep player order
// and share a rank.
func Tally(room *domain.Room) domain.RoundResult {
	counts := make(map[string]int, len(room.Players))
	for _, target := range room.Votes {
		counts[target]++
	}

	rankings := make([]domain.Ranking, 0, len(room.Players))
	for _, p := range room.Players {
		rankings = append(rankings, domain.Ranking{
			PlayerID: p.ID,
			Votes:    counts[p.ID],
			Points:   counts[p.ID] * PointsPerVote,
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Votes > rankings[j].Votes
	})
	for i := range rankings {
		if i > 0 && rankings[i].Votes == rankings[i-1].Votes {
			rankings[i].Rank = rankings[i-1].Rank
		} else {
			rankings[i].Rank = i + 1
		}
	}

	return domain.RoundResult{
		RoundNumber: room.RoundNumber,
		Rankings:    rankings,
	}
}

// finishRound appends the round result once and moves to results
func finishRound(room *domain.Room) {
	if _, done := room.ResultFor(room.RoundNumber); !done {
		result := Tally(room)
		room.RoundResults = append(room.RoundResults, result)
		for _, rk := range result.Rankings {
			room.Scores[rk.PlayerID] += rk.Points
		}
	}
	room.Status = domain.StatusResults
}
