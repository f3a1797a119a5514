package domain

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom() *Room {
	room := NewRoom(NewPlayer("h", "Host"), DefaultSettings())
	room.Players = append(room.Players, NewPlayer("a", "A"), NewPlayer("b", "B"))
	room.PlayerStates["a"] = NewPlayerState()
	room.PlayerStates["b"] = NewPlayerState()
	room.WaitingPlayers = append(room.WaitingPlayers, NewPlayer("w", "W"))
	return room
}

func TestCloneIsDeep(t *testing.T) {
	room := testRoom()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	room.PlayerStates["a"] = PlayerState{Status: PlayerDrawing, TimerStartedAt: &started}
	room.SabotageEffect = &SabotageEffect{Type: EffectReduceColors, Intensity: 2}
	room.Votes["a"] = "b"
	room.RoundResults = []RoundResult{{RoundNumber: 1, Rankings: []Ranking{{PlayerID: "b", Rank: 1}}}}
	room.Scores["b"] = 100

	c := room.Clone()
	c.Players[0].Name = "changed"
	*c.PlayerStates["a"].TimerStartedAt = started.Add(time.Hour)
	c.SabotageEffect.Intensity = 9
	c.Votes["b"] = "a"
	c.RoundResults[0].Rankings[0].Rank = 2
	c.Scores["b"] = 0

	assert.Equal(t, "Host", room.Players[0].Name)
	assert.Equal(t, started, *room.PlayerStates["a"].TimerStartedAt)
	assert.Equal(t, 2, room.SabotageEffect.Intensity)
	assert.Len(t, room.Votes, 1)
	assert.Equal(t, 1, room.RoundResults[0].Rankings[0].Rank)
	assert.Equal(t, 100, room.Scores["b"])

	var nilRoom *Room
	assert.Nil(t, nilRoom.Clone())
}

func TestNormalizeAfterSparseDecode(t *testing.T) {
	var room Room
	require.NoError(t, json.Unmarshal([]byte(`{"roomCode":"ABC123","status":"lobby"}`), &room))
	room.Normalize()

	assert.NotNil(t, room.Players)
	assert.NotNil(t, room.WaitingPlayers)
	assert.NotNil(t, room.PlayerStates)
	assert.NotNil(t, room.Votes)
	assert.NotNil(t, room.Scores)
	assert.True(t, room.State("nobody") == NewPlayerState())
}

func TestMembership(t *testing.T) {
	room := testRoom()

	assert.True(t, room.IsHost("h"))
	assert.True(t, room.IsActive("a"))
	assert.True(t, room.IsWaiting("w"))
	assert.Equal(t, 4, room.MemberCount())

	p, err := room.GetPlayer("w")
	require.NoError(t, err)
	assert.Equal(t, "W", p.Name)
	_, err = room.GetPlayer("zz")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	room.Votes["a"] = "b"
	require.NoError(t, room.RemoveMember("a"))
	assert.False(t, room.IsActive("a"))
	assert.NotContains(t, room.PlayerStates, "a")
	assert.NotContains(t, room.Votes, "a")
	require.NoError(t, room.RemoveMember("w"))
	assert.ErrorIs(t, room.RemoveMember("w"), ErrPlayerNotFound)
}

func TestAllSubmittedAndVoted(t *testing.T) {
	room := testRoom()
	assert.False(t, room.AllSubmitted())

	for _, id := range room.PlayerIDs() {
		room.PlayerStates[id] = PlayerState{Status: PlayerSubmitted}
		room.Votes[id] = "x"
	}
	assert.True(t, room.AllSubmitted())
	assert.True(t, room.AllVoted())

	room.ResetRoundState()
	assert.False(t, room.AllSubmitted())
	assert.False(t, room.AllVoted())
}

func TestLeaders(t *testing.T) {
	room := testRoom()
	room.Scores = map[string]int{"a": 200, "b": 200, "h": 100}
	assert.Equal(t, []string{"a", "b"}, room.Leaders())

	room.Scores = map[string]int{}
	assert.Equal(t, []string{"h", "a", "b"}, room.Leaders())
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
	assert.ErrorIs(t, Settings{TimerDuration: 4, TotalRounds: 3}.Validate(), ErrInvalidSettings)
	assert.ErrorIs(t, Settings{TimerDuration: 61, TotalRounds: 3}.Validate(), ErrInvalidSettings)
	assert.ErrorIs(t, Settings{TimerDuration: 15, TotalRounds: 11}.Validate(), ErrInvalidSettings)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusLobby.CanTransitionTo(StatusUploading))
	assert.True(t, StatusResults.CanTransitionTo(StatusFinal))
	assert.True(t, StatusDrawing.CanTransitionTo(StatusLobby))
	assert.False(t, StatusLobby.CanTransitionTo(StatusVoting))
	assert.False(t, Status("bogus").CanTransitionTo(StatusLobby))

	for _, s := range AllStatuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.True(t, StatusVoting.InRound())
	assert.False(t, StatusResults.InRound())
}

func TestErrorCodes(t *testing.T) {
	wrapped := fmt.Errorf("start game: %w", ErrNotHost)
	assert.Equal(t, CodeNotHost, ErrorCode(wrapped))
	assert.Equal(t, "Only the host can do that", UserMessage(wrapped))

	assert.Equal(t, CodeInternalError, ErrorCode(fmt.Errorf("boom")))
	assert.NotEmpty(t, UserMessage(fmt.Errorf("boom")))
}

func TestPlayerLastSeenRoundTrip(t *testing.T) {
	seen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPlayer("a", "A")
	p.LastSeen = seen

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded Player
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.LastSeen.Equal(seen))

	data, err = json.Marshal(NewPlayer("b", "B"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lastSeen":"0001-01-01T00:00:00Z"`, "zero presence is encoded, not omitted")
}
