// Package reward grants XP at round end and game end, exactly once per
// transition, and applies level-ups and level-gated unlocks.
package reward

import (
	"slices"

	"doodleduel/internal/domain"
)

const (
	RoundParticipationXP = 10
	RoundWinXP           = 25
	GameCompletionXP     = 50
	GameWinXP            = 100

	// XPPerLevel scales the cost of each level: level L to L+1 costs XPPerLevel*L
	XPPerLevel = 100
)

// Unlock is a cosmetic gated on a level
type Unlock struct {
	Level int
	ID    string
}

// Unlocks lists level-gated cosmetics in level order
var Unlocks = []Unlock{
	{Level: 2, ID: "brush-neon"},
	{Level: 3, ID: "palette-pastel"},
	{Level: 5, ID: "frame-gold"},
	{Level: 10, ID: "badge-veteran"},
}

// Profile is the local player's progression
type Profile struct {
	XP           int      `json:"xp"`
	Level        int      `json:"level"`
	RoundsPlayed int      `json:"roundsPlayed"`
	RoundsWon    int      `json:"roundsWon"`
	RoundsLost   int      `json:"roundsLost"`
	GamesPlayed  int      `json:"gamesPlayed"`
	GamesWon     int      `json:"gamesWon"`
	Unlocks      []string `json:"unlocks"`
}

// NewProfile returns a level 1 profile
func NewProfile() Profile {
	return Profile{Level: 1, Unlocks: make([]string, 0)}
}

// Kind is what the grant was for
type Kind string

const (
	KindRound Kind = "round"
	KindGame  Kind = "game"
)

// Grant is the numeric outcome of one reward transition
type Grant struct {
	Kind         Kind     `json:"kind"`
	Round        int      `json:"round"`
	XP           int      `json:"xp"`
	Won          bool     `json:"won"`
	Level        int      `json:"level"`
	LevelsGained int      `json:"levelsGained"`
	NewUnlocks   []string `json:"newUnlocks,omitempty"`
}

// ThresholdFor returns the total XP needed to reach level
func ThresholdFor(level int) int {
	return XPPerLevel * level * (level - 1) / 2
}

// LevelFor returns the level a total XP amount reaches
func LevelFor(xp int) int {
	level := 1
	for ThresholdFor(level+1) <= xp {
		level++
	}
	return level
}

// RoundEnd grants the round's participation XP plus the win bonus when the
// player ranked first in the round's stored ranking.
func RoundEnd(p *Profile, room *domain.Room, playerID string) Grant {
	g := Grant{Kind: KindRound, Round: room.RoundNumber, XP: RoundParticipationXP}
	if result, ok := room.ResultFor(room.RoundNumber); ok && result.RankOf(playerID) == 1 {
		g.Won = true
		g.XP += RoundWinXP
	}

	p.RoundsPlayed++
	if g.Won {
		p.RoundsWon++
	} else {
		p.RoundsLost++
	}
	p.apply(&g)
	return g
}

// GameEnd grants completion XP plus the win bonus when the player holds the
// highest cumulative score. Shared first place counts as a win.
func GameEnd(p *Profile, room *domain.Room, playerID string) Grant {
	g := Grant{Kind: KindGame, Round: room.RoundNumber, XP: GameCompletionXP}
	if slices.Contains(room.Leaders(), playerID) {
		g.Won = true
		g.XP += GameWinXP
	}

	p.GamesPlayed++
	if g.Won {
		p.GamesWon++
	}
	p.apply(&g)
	return g
}

func (p *Profile) apply(g *Grant) {
	if p.Level < 1 {
		p.Level = 1
	}
	p.XP += g.XP

	newLevel := LevelFor(p.XP)
	if newLevel > p.Level {
		g.LevelsGained = newLevel - p.Level
		p.Level = newLevel
	}
	g.Level = p.Level

	for _, u := range Unlocks {
		if u.Level <= p.Level && !slices.Contains(p.Unlocks, u.ID) {
			p.Unlocks = append(p.Unlocks, u.ID)
			g.NewUnlocks = append(g.NewUnlocks, u.ID)
		}
	}
}

// Publish writes the player's XP and level into their room entry so lobby and
// results screens show it without a separate refresh.
func Publish(playerID string, p Profile) domain.Transform {
	return func(room *domain.Room) error {
		return room.UpdatePlayer(playerID, func(pl *domain.Player) {
			pl.XP = p.XP
			pl.Level = p.Level
		})
	}
}
