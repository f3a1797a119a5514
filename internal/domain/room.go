package domain

import (
	"slices"
	"time"
)

const (
	MinPlayers = 3
	MaxPlayers = 8

	DefaultTimerDuration = 15
	MinTimerDuration     = 5
	MaxTimerDuration     = 60

	DefaultTotalRounds = 3
	MinTotalRounds     = 1
	MaxTotalRounds     = 10
)

// Transform is a read-modify-write mutation applied to a room snapshot.
// Returning an error aborts the write.
type Transform func(room *Room) error

// Settings holds host-configurable room parameters
type Settings struct {
	TimerDuration    int  `json:"timerDuration"` // seconds
	TotalRounds      int  `json:"totalRounds"`
	UploadEveryRound bool `json:"uploadEveryRound"`
}

// DefaultSettings returns the default room settings
func DefaultSettings() Settings {
	return Settings{
		TimerDuration:    DefaultTimerDuration,
		TotalRounds:      DefaultTotalRounds,
		UploadEveryRound: true,
	}
}

// Validate checks the settings are within the allowed ranges
func (s Settings) Validate() error {
	if s.TimerDuration < MinTimerDuration || s.TimerDuration > MaxTimerDuration {
		return ErrInvalidSettings
	}
	if s.TotalRounds < MinTotalRounds || s.TotalRounds > MaxTotalRounds {
		return ErrInvalidSettings
	}
	return nil
}

// Room is the shared document every client polls
type Room struct {
	Code              string                 `json:"roomCode"`
	HostID            string                 `json:"hostId"`
	Status            Status                 `json:"status"`
	RoundNumber       int                    `json:"roundNumber"`
	Players           []Player               `json:"players"`
	WaitingPlayers    []Player               `json:"waitingPlayers"`
	PlayerStates      map[string]PlayerState `json:"playerStates"`
	Settings          Settings               `json:"settings"`
	UploaderID        string                 `json:"uploaderId,omitempty"`
	ImageURL          string                 `json:"imageUrl,omitempty"`
	SaboteurID        string                 `json:"saboteurId,omitempty"`
	SabotageTargetID  string                 `json:"sabotageTargetId,omitempty"`
	SabotageEffect    *SabotageEffect        `json:"sabotageEffect,omitempty"`
	SabotageTriggered bool                   `json:"sabotageTriggered"`
	TimeBonusPlayerID string                 `json:"timeBonusPlayerId,omitempty"`
	Votes             map[string]string      `json:"votes"`
	RoundResults      []RoundResult          `json:"roundResults"`
	Scores            map[string]int         `json:"scores"`
	Version           int64                  `json:"version"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// NewRoom creates a lobby with the host as its first player
func NewRoom(host Player, settings Settings) *Room {
	now := time.Now()
	return &Room{
		HostID:         host.ID,
		Status:         StatusLobby,
		Players:        []Player{host},
		WaitingPlayers: make([]Player, 0),
		PlayerStates:   map[string]PlayerState{host.ID: NewPlayerState()},
		Settings:       settings,
		Votes:          make(map[string]string),
		RoundResults:   make([]RoundResult, 0),
		Scores:         make(map[string]int),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy so transforms never alias a stored snapshot
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = slices.Clone(r.Players)
	c.WaitingPlayers = slices.Clone(r.WaitingPlayers)
	c.PlayerStates = make(map[string]PlayerState, len(r.PlayerStates))
	for id, st := range r.PlayerStates {
		c.PlayerStates[id] = st.clone()
	}
	if r.SabotageEffect != nil {
		effect := *r.SabotageEffect
		c.SabotageEffect = &effect
	}
	c.Votes = make(map[string]string, len(r.Votes))
	for voter, target := range r.Votes {
		c.Votes[voter] = target
	}
	c.RoundResults = make([]RoundResult, len(r.RoundResults))
	for i, res := range r.RoundResults {
		c.RoundResults[i] = RoundResult{
			RoundNumber: res.RoundNumber,
			Rankings:    slices.Clone(res.Rankings),
		}
	}
	c.Scores = make(map[string]int, len(r.Scores))
	for id, score := range r.Scores {
		c.Scores[id] = score
	}
	return &c
}

// Normalize fills nil collections, e.g. after decoding a sparse document
func (r *Room) Normalize() {
	if r.Players == nil {
		r.Players = make([]Player, 0)
	}
	if r.WaitingPlayers == nil {
		r.WaitingPlayers = make([]Player, 0)
	}
	if r.PlayerStates == nil {
		r.PlayerStates = make(map[string]PlayerState)
	}
	if r.Votes == nil {
		r.Votes = make(map[string]string)
	}
	if r.RoundResults == nil {
		r.RoundResults = make([]RoundResult, 0)
	}
	if r.Scores == nil {
		r.Scores = make(map[string]int)
	}
}

// IsHost checks if the given player is the host
func (r *Room) IsHost(playerID string) bool {
	return r.HostID == playerID
}

// PlayerIndex returns the index of an active player or -1
func (r *Room) PlayerIndex(playerID string) int {
	return slices.IndexFunc(r.Players, func(p Player) bool { return p.ID == playerID })
}

// WaitingIndex returns the index of a queued player or -1
func (r *Room) WaitingIndex(playerID string) int {
	return slices.IndexFunc(r.WaitingPlayers, func(p Player) bool { return p.ID == playerID })
}

// IsActive returns true if the player is listed in players
func (r *Room) IsActive(playerID string) bool {
	return r.PlayerIndex(playerID) >= 0
}

// IsWaiting returns true if the player is listed in waitingPlayers
func (r *Room) IsWaiting(playerID string) bool {
	return r.WaitingIndex(playerID) >= 0
}

// GetPlayer returns a player from either list
func (r *Room) GetPlayer(playerID string) (Player, error) {
	if i := r.PlayerIndex(playerID); i >= 0 {
		return r.Players[i], nil
	}
	if i := r.WaitingIndex(playerID); i >= 0 {
		return r.WaitingPlayers[i], nil
	}
	return Player{}, ErrPlayerNotFound
}

// UpdatePlayer applies fn to the player's entry in whichever list holds it
func (r *Room) UpdatePlayer(playerID string, fn func(p *Player)) error {
	if i := r.PlayerIndex(playerID); i >= 0 {
		fn(&r.Players[i])
		return nil
	}
	if i := r.WaitingIndex(playerID); i >= 0 {
		fn(&r.WaitingPlayers[i])
		return nil
	}
	return ErrPlayerNotFound
}

// PlayerIDs returns the ids of active players in order
func (r *Room) PlayerIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

// MemberCount returns active plus waiting players
func (r *Room) MemberCount() int {
	return len(r.Players) + len(r.WaitingPlayers)
}

// State returns the player's round state, or a fresh one if missing
func (r *Room) State(playerID string) PlayerState {
	if st, ok := r.PlayerStates[playerID]; ok {
		return st
	}
	return NewPlayerState()
}

// AllSubmitted checks if every active player has submitted a drawing
func (r *Room) AllSubmitted() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !r.State(p.ID).HasSubmitted() {
			return false
		}
	}
	return true
}

// AllVoted checks if every active player has voted
func (r *Room) AllVoted() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if _, ok := r.Votes[p.ID]; !ok {
			return false
		}
	}
	return true
}

// ResetRoundState clears every per-round field and gives each active player a fresh state
func (r *Room) ResetRoundState() {
	r.PlayerStates = make(map[string]PlayerState, len(r.Players))
	for _, p := range r.Players {
		r.PlayerStates[p.ID] = NewPlayerState()
	}
	r.Votes = make(map[string]string)
	r.UploaderID = ""
	r.SaboteurID = ""
	r.SabotageTargetID = ""
	r.SabotageEffect = nil
	r.SabotageTriggered = false
	r.TimeBonusPlayerID = ""
}

// RemoveMember deletes a player from both lists and every per-player map
func (r *Room) RemoveMember(playerID string) error {
	found := false
	if i := r.PlayerIndex(playerID); i >= 0 {
		r.Players = slices.Delete(r.Players, i, i+1)
		found = true
	}
	if i := r.WaitingIndex(playerID); i >= 0 {
		r.WaitingPlayers = slices.Delete(r.WaitingPlayers, i, i+1)
		found = true
	}
	if !found {
		return ErrPlayerNotFound
	}

	delete(r.PlayerStates, playerID)
	delete(r.Votes, playerID)
	for voter, target := range r.Votes {
		if target == playerID {
			delete(r.Votes, voter)
		}
	}

	// If host left, the longest-standing active player takes over
	if r.HostID == playerID {
		r.HostID = ""
		if len(r.Players) > 0 {
			r.HostID = r.Players[0].ID
		} else if len(r.WaitingPlayers) > 0 {
			r.HostID = r.WaitingPlayers[0].ID
		}
	}
	return nil
}
