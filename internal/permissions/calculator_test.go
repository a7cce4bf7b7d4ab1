package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crew/internal/catalog"
	"crew/internal/team/models"
	dErrors "crew/pkg/domain-errors"
)

// fixtureCatalog mirrors the documented sales/marketing scenario so the
// expected sets are exact.
func fixtureCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		catalog.TeamDefinition{
			ID:                 catalog.TeamSales,
			Name:               "Sales",
			MemberPermissions:  []string{"view_leads", "respond_to_leads"},
			ManagerPermissions: []string{"view_leads", "respond_to_leads", "assign_leads"},
		},
		catalog.TeamDefinition{
			ID:                 catalog.TeamMarketing,
			Name:               "Marketing",
			MemberPermissions:  []string{"view_campaigns"},
			ManagerPermissions: []string{"view_campaigns", "manage_campaigns"},
		},
	)
	require.NoError(t, err)
	return c
}

func TestPermissionsFor(t *testing.T) {
	c := fixtureCatalog(t)

	t.Run("member set for member role", func(t *testing.T) {
		perms, err := PermissionsFor(c, models.TeamAssignment{TeamID: catalog.TeamSales, Role: catalog.RoleMember})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"view_leads", "respond_to_leads"}, perms)
	})

	t.Run("manager set for manager role", func(t *testing.T) {
		perms, err := PermissionsFor(c, models.TeamAssignment{TeamID: catalog.TeamSales, Role: catalog.RoleManager})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"view_leads", "respond_to_leads", "assign_leads"}, perms)
	})

	t.Run("unknown team fails", func(t *testing.T) {
		_, err := PermissionsFor(c, models.TeamAssignment{TeamID: "finance", Role: catalog.RoleMember})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("invalid role fails", func(t *testing.T) {
		_, err := PermissionsFor(c, models.TeamAssignment{TeamID: catalog.TeamSales, Role: "owner"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestCalculateEffective(t *testing.T) {
	c := fixtureCatalog(t)

	sales := models.TeamAssignment{TeamID: catalog.TeamSales, Role: catalog.RoleMember}
	marketing := models.TeamAssignment{TeamID: catalog.TeamMarketing, Role: catalog.RoleMember}

	t.Run("documented scenario", func(t *testing.T) {
		got, err := CalculateEffective(c, nil, []models.TeamAssignment{sales, marketing})
		require.NoError(t, err)
		assert.Equal(t, []string{"respond_to_leads", "view_campaigns", "view_leads"}, got)
	})

	t.Run("promotion to sales manager adds assign_leads", func(t *testing.T) {
		salesMgr := models.TeamAssignment{TeamID: catalog.TeamSales, Role: catalog.RoleManager}
		before, err := CalculateEffective(c, nil, []models.TeamAssignment{sales, marketing})
		require.NoError(t, err)
		after, err := CalculateEffective(c, nil, []models.TeamAssignment{salesMgr, marketing})
		require.NoError(t, err)

		added, removed := Diff(before, after)
		assert.Equal(t, []string{"assign_leads"}, added)
		assert.Empty(t, removed)
	})

	t.Run("order independent", func(t *testing.T) {
		forward, err := CalculateEffective(c, []string{"view_ops_dashboard"}, []models.TeamAssignment{sales, marketing})
		require.NoError(t, err)
		reversed, err := CalculateEffective(c, []string{"view_ops_dashboard"}, []models.TeamAssignment{marketing, sales})
		require.NoError(t, err)
		assert.Equal(t, forward, reversed)
	})

	t.Run("union has no duplicates", func(t *testing.T) {
		got, err := CalculateEffective(c, []string{"view_leads", "view_leads "}, []models.TeamAssignment{sales})
		require.NoError(t, err)
		assert.Equal(t, []string{"respond_to_leads", "view_leads"}, got)
	})

	t.Run("base only", func(t *testing.T) {
		got, err := CalculateEffective(c, []string{"b", "a"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("fails on unknown team in list", func(t *testing.T) {
		_, err := CalculateEffective(c, nil, []models.TeamAssignment{
			sales,
			{TeamID: "finance", Role: catalog.RoleMember},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("fails on invalid role in list", func(t *testing.T) {
		_, err := CalculateEffective(c, nil, []models.TeamAssignment{
			{TeamID: catalog.TeamSales, Role: "owner"},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestDiff(t *testing.T) {
	added, removed := Diff(
		[]string{"view_leads", "respond_to_leads"},
		[]string{"view_leads", "assign_leads"},
	)
	assert.Equal(t, []string{"assign_leads"}, added)
	assert.Equal(t, []string{"respond_to_leads"}, removed)

	added, removed = Diff([]string{"a"}, []string{"a"})
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestChecks(t *testing.T) {
	profile := &models.StaffProfile{
		EffectivePermissions: []string{"view_leads", "respond_to_leads"},
	}

	assert.True(t, HasPermission(profile, "view_leads"))
	assert.False(t, HasPermission(profile, "assign_leads"))
	assert.False(t, HasPermission(nil, "view_leads"))

	assert.True(t, HasAnyPermission(profile, "assign_leads", "view_leads"))
	assert.False(t, HasAnyPermission(profile, "assign_leads", "ban_users"))

	assert.True(t, HasAllPermissions(profile, "view_leads", "respond_to_leads"))
	assert.False(t, HasAllPermissions(profile, "view_leads", "assign_leads"))
	assert.True(t, HasAllPermissions(profile))
}
