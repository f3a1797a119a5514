// Package phase maps a room status and a player's role to the screen that
// player should see, and classifies what changed between two snapshots.
package phase

import (
	"errors"
	"fmt"

	"doodleduel/internal/domain"
)

// ErrUnknownStatus is returned for a status missing from the screen table
var ErrUnknownStatus = errors.New("unknown room status")

// Screen is what the UI renders for one player
type Screen string

const (
	ScreenHome     Screen = "home" // Neutral screen outside any room
	ScreenLobby    Screen = "lobby"
	ScreenUpload   Screen = "upload"
	ScreenSabotage Screen = "sabotage"
	ScreenDrawing  Screen = "drawing"
	ScreenVoting   Screen = "voting"
	ScreenResults  Screen = "results"
	ScreenFinal    Screen = "final"
	ScreenRewards  Screen = "rewards"
	ScreenWaiting  Screen = "waiting"
)

// ViewRole collapses a player's role into the two views the table knows
type ViewRole string

const (
	ViewActive  ViewRole = "active"
	ViewWaiting ViewRole = "waiting"
)

// ViewRoles lists every view role
var ViewRoles = []ViewRole{ViewActive, ViewWaiting}

// ViewRoleOf maps a domain role to a view role
func ViewRoleOf(role domain.Role) ViewRole {
	if role == domain.RoleActive {
		return ViewActive
	}
	return ViewWaiting
}

// screens is the full (status, role) table. Waiting players see a neutral
// screen except for round and game outcomes, which everyone sees.
var screens = map[domain.Status]map[ViewRole]Screen{
	domain.StatusLobby:             {ViewActive: ScreenLobby, ViewWaiting: ScreenLobby},
	domain.StatusUploading:         {ViewActive: ScreenUpload, ViewWaiting: ScreenWaiting},
	domain.StatusSabotageSelection: {ViewActive: ScreenSabotage, ViewWaiting: ScreenWaiting},
	domain.StatusDrawing:           {ViewActive: ScreenDrawing, ViewWaiting: ScreenWaiting},
	domain.StatusVoting:            {ViewActive: ScreenVoting, ViewWaiting: ScreenWaiting},
	domain.StatusResults:           {ViewActive: ScreenResults, ViewWaiting: ScreenResults},
	domain.StatusFinal:             {ViewActive: ScreenFinal, ViewWaiting: ScreenFinal},
	domain.StatusRewards:           {ViewActive: ScreenRewards, ViewWaiting: ScreenWaiting},
}

// ScreenFor returns the screen for the given status and role
func ScreenFor(status domain.Status, role domain.Role) (Screen, error) {
	byRole, ok := screens[status]
	if !ok {
		return ScreenHome, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	screen, ok := byRole[ViewRoleOf(role)]
	if !ok {
		return ScreenHome, fmt.Errorf("%w: %q has no %s screen", ErrUnknownStatus, status, ViewRoleOf(role))
	}
	return screen, nil
}

// Snapshot is the slice of a room that drives screen changes
type Snapshot struct {
	Status domain.Status
	Round  int
	Role   domain.Role
}

// Of builds the snapshot for a player
func Of(room *domain.Room, role domain.Role) Snapshot {
	return Snapshot{Status: room.Status, Round: room.RoundNumber, Role: role}
}

// Change describes what differs between the previous and current snapshot
type Change struct {
	Prev          Snapshot
	Curr          Snapshot
	First         bool // no previous snapshot
	StatusChanged bool
	RoundChanged  bool
	RoleChanged   bool
}

// Detect compares two snapshots. A nil prev means this is the first one.
func Detect(prev *Snapshot, curr Snapshot) Change {
	if prev == nil {
		return Change{
			Curr:          curr,
			First:         true,
			StatusChanged: true,
			RoundChanged:  true,
			RoleChanged:   true,
		}
	}
	return Change{
		Prev:          *prev,
		Curr:          curr,
		StatusChanged: prev.Status != curr.Status,
		RoundChanged:  prev.Round != curr.Round,
		RoleChanged:   prev.Role != curr.Role,
	}
}

// Any returns true if any of the three change classes fired
func (c Change) Any() bool {
	return c.StatusChanged || c.RoundChanged || c.RoleChanged
}

// Entered reports an edge into status. The first snapshot is never an edge,
// so a refresh in the middle of a phase does not replay its entry effects.
func (c Change) Entered(status domain.Status) bool {
	return !c.First && c.StatusChanged && c.Curr.Status == status
}

// Promoted reports a waiting player becoming active
func (c Change) Promoted() bool {
	return !c.First && c.RoleChanged && c.Prev.Role.IsWaiting() && c.Curr.Role == domain.RoleActive
}

// EnteredDrawing reports that the local canvas must be cleared: either the
// room entered drawing, or a new round started while already drawing, or the
// player was promoted straight into a drawing round.
func (c Change) EnteredDrawing() bool {
	if c.Curr.Status != domain.StatusDrawing || c.Curr.Role != domain.RoleActive {
		return false
	}
	return c.StatusChanged || c.RoundChanged || c.RoleChanged
}
