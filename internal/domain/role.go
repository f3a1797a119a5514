package domain

// Role represents where a player sits relative to the running round
type Role string

const (
	RoleActive     Role = "active"     // Listed in players
	RoleQueued     Role = "queued"     // Listed in waitingPlayers between rounds
	RoleSpectating Role = "spectating" // Listed in waitingPlayers while a round runs
	RoleAbsent     Role = "absent"     // Listed nowhere, e.g. kicked
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsWaiting returns true for both queued and spectating players
func (r Role) IsWaiting() bool {
	return r == RoleQueued || r == RoleSpectating
}
