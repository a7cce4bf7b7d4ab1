package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "crew/pkg/domain-errors"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	t.Run("defines exactly eight teams", func(t *testing.T) {
		assert.Equal(t, 8, c.Len())
		assert.Len(t, c.TeamIDs(), 8)
	})

	t.Run("every team ID resolves", func(t *testing.T) {
		for _, teamID := range c.TeamIDs() {
			def, err := c.Get(teamID)
			require.NoError(t, err)
			assert.Equal(t, teamID, def.ID)
			assert.NotEmpty(t, def.Name)
			assert.NotEmpty(t, def.MemberPermissions)
			assert.NotEmpty(t, def.ManagerPermissions)
		}
	})

	t.Run("unknown team is a coded not_found", func(t *testing.T) {
		_, err := c.Get("finance")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("operations managers can manage staff roles", func(t *testing.T) {
		def, err := c.Get(TeamOperations)
		require.NoError(t, err)
		assert.Contains(t, def.ManagerPermissions, "manage_staff_roles")
		assert.NotContains(t, def.MemberPermissions, "manage_staff_roles")
	})
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New(
		TeamDefinition{ID: TeamSales},
		TeamDefinition{ID: TeamSales},
	)
	require.Error(t, err)
}

func TestNewRejectsEmptyID(t *testing.T) {
	_, err := New(TeamDefinition{})
	require.Error(t, err)
}

func TestTeamIDsReturnsCopy(t *testing.T) {
	c := Default()
	ids := c.TeamIDs()
	ids[0] = "tampered"
	assert.NotEqual(t, TeamID("tampered"), c.TeamIDs()[0])
}

func TestParseRole(t *testing.T) {
	t.Run("accepts member and manager", func(t *testing.T) {
		for _, s := range []string{"member", "manager"} {
			role, err := ParseRole(s)
			require.NoError(t, err)
			assert.True(t, IsValidRole(role))
		}
	})

	t.Run("rejects anything else", func(t *testing.T) {
		for _, s := range []string{"", "admin", "Member", "owner"} {
			_, err := ParseRole(s)
			require.Error(t, err, "input %q", s)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}

func TestParseTeamID(t *testing.T) {
	c := Default()

	teamID, err := c.ParseTeamID("sales")
	require.NoError(t, err)
	assert.Equal(t, TeamSales, teamID)

	_, err = c.ParseTeamID("payroll")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestPermissionsForRole(t *testing.T) {
	def := TeamDefinition{
		ID:                 TeamSales,
		MemberPermissions:  []string{"view_leads"},
		ManagerPermissions: []string{"assign_leads"},
	}

	t.Run("reads strictly the assigned role's set", func(t *testing.T) {
		member, err := def.PermissionsForRole(RoleMember)
		require.NoError(t, err)
		assert.Equal(t, []string{"view_leads"}, member)

		// The manager set is not assumed to contain the member set.
		manager, err := def.PermissionsForRole(RoleManager)
		require.NoError(t, err)
		assert.Equal(t, []string{"assign_leads"}, manager)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := def.PermissionsForRole("owner")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
