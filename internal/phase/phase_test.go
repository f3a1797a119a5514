package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doodleduel/internal/domain"
)

var allRoles = []domain.Role{domain.RoleActive, domain.RoleQueued, domain.RoleSpectating, domain.RoleAbsent}

func TestScreenForCoversEveryStatusAndRole(t *testing.T) {
	for _, status := range domain.AllStatuses {
		for _, role := range allRoles {
			screen, err := ScreenFor(status, role)
			require.NoError(t, err, "%s/%s", status, role)
			assert.NotEmpty(t, screen)
		}
	}
}

func TestScreenFor(t *testing.T) {
	tests := []struct {
		status domain.Status
		role   domain.Role
		want   Screen
	}{
		{domain.StatusLobby, domain.RoleActive, ScreenLobby},
		{domain.StatusUploading, domain.RoleActive, ScreenUpload},
		{domain.StatusUploading, domain.RoleSpectating, ScreenWaiting},
		{domain.StatusSabotageSelection, domain.RoleActive, ScreenSabotage},
		{domain.StatusDrawing, domain.RoleActive, ScreenDrawing},
		{domain.StatusDrawing, domain.RoleSpectating, ScreenWaiting},
		{domain.StatusVoting, domain.RoleSpectating, ScreenWaiting},
		{domain.StatusResults, domain.RoleQueued, ScreenResults},
		{domain.StatusFinal, domain.RoleQueued, ScreenFinal},
		{domain.StatusRewards, domain.RoleActive, ScreenRewards},
		{domain.StatusRewards, domain.RoleQueued, ScreenWaiting},
	}
	for _, tt := range tests {
		got, err := ScreenFor(tt.status, tt.role)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s/%s", tt.status, tt.role)
	}
}

func TestScreenForUnknownStatus(t *testing.T) {
	screen, err := ScreenFor("intermission", domain.RoleActive)
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Equal(t, ScreenHome, screen)
}

func TestDetectFirstSnapshot(t *testing.T) {
	c := Detect(nil, Snapshot{Status: domain.StatusDrawing, Round: 2, Role: domain.RoleActive})

	assert.True(t, c.First)
	assert.True(t, c.Any())
	assert.False(t, c.Entered(domain.StatusDrawing))
	assert.False(t, c.Promoted())
	assert.True(t, c.EnteredDrawing())
}

func TestDetectChanges(t *testing.T) {
	prev := Snapshot{Status: domain.StatusVoting, Round: 1, Role: domain.RoleActive}

	same := Detect(&prev, prev)
	assert.False(t, same.Any())

	results := Detect(&prev, Snapshot{Status: domain.StatusResults, Round: 1, Role: domain.RoleActive})
	assert.True(t, results.StatusChanged)
	assert.False(t, results.RoundChanged)
	assert.True(t, results.Entered(domain.StatusResults))
	assert.False(t, results.Entered(domain.StatusVoting))
}

func TestNewRoundWhileAlreadyDrawing(t *testing.T) {
	prev := Snapshot{Status: domain.StatusDrawing, Round: 1, Role: domain.RoleActive}
	c := Detect(&prev, Snapshot{Status: domain.StatusDrawing, Round: 2, Role: domain.RoleActive})

	assert.False(t, c.StatusChanged)
	assert.True(t, c.RoundChanged)
	assert.True(t, c.EnteredDrawing())
}

func TestPromotedIntoDrawing(t *testing.T) {
	prev := Snapshot{Status: domain.StatusDrawing, Round: 1, Role: domain.RoleSpectating}
	c := Detect(&prev, Snapshot{Status: domain.StatusDrawing, Round: 1, Role: domain.RoleActive})

	assert.True(t, c.Promoted())
	assert.True(t, c.EnteredDrawing())

	waiting := Detect(&prev, Snapshot{Status: domain.StatusVoting, Round: 1, Role: domain.RoleSpectating})
	assert.False(t, waiting.EnteredDrawing())
}

func TestViewRoleOf(t *testing.T) {
	assert.Equal(t, ViewActive, ViewRoleOf(domain.RoleActive))
	for _, role := range []domain.Role{domain.RoleQueued, domain.RoleSpectating, domain.RoleAbsent} {
		assert.Equal(t, ViewWaiting, ViewRoleOf(role))
	}
}
