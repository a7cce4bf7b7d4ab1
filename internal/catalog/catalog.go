// Package catalog defines the static table of staff teams and the two
// permission tiers each team grants.
//
// A Catalog is immutable after construction and safe for unsynchronized
// concurrent reads. Production code injects Default(); tests construct
// fixture catalogs with New so permission sets can be controlled exactly.
package catalog

import (
	"fmt"

	dErrors "crew/pkg/domain-errors"
)

// TeamID is the closed enumeration of staff teams. Invalid values are caught
// at the boundary by ParseTeamID rather than silently producing empty
// permission sets.
type TeamID string

const (
	TeamSales       TeamID = "sales"
	TeamMarketing   TeamID = "marketing"
	TeamSupport     TeamID = "support"
	TeamModeration  TeamID = "moderation"
	TeamBilling     TeamID = "billing"
	TeamContent     TeamID = "content"
	TeamOperations  TeamID = "operations"
	TeamEngineering TeamID = "engineering"
)

// Role is the closed enumeration of membership tiers within a team.
type Role string

const (
	RoleMember  Role = "member"
	RoleManager Role = "manager"
)

// IsValidRole reports whether r is one of the two defined roles.
func IsValidRole(r Role) bool {
	return r == RoleMember || r == RoleManager
}

// ParseRole validates a role string at a trust boundary.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !IsValidRole(r) {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "role must be %q or %q", RoleMember, RoleManager)
	}
	return r, nil
}

// TeamDefinition describes one team. The member and manager permission sets
// are independent: the engine reads strictly the set matching the assigned
// role and never assumes the manager set contains the member set.
type TeamDefinition struct {
	ID               TeamID   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Responsibilities []string `json:"responsibilities"`

	MemberPermissions  []string `json:"member_permissions"`
	ManagerPermissions []string `json:"manager_permissions"`
}

// PermissionsForRole returns the permission set matching the given role.
func (d TeamDefinition) PermissionsForRole(role Role) ([]string, error) {
	switch role {
	case RoleMember:
		return d.MemberPermissions, nil
	case RoleManager:
		return d.ManagerPermissions, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", role)
	}
}

// Catalog is the read-only table of team definitions.
type Catalog struct {
	defs  map[TeamID]TeamDefinition
	order []TeamID
}

// New builds a catalog from explicit definitions. Duplicate team IDs are a
// construction error so a misconfigured table fails at startup, not at
// request time.
func New(defs ...TeamDefinition) (*Catalog, error) {
	c := &Catalog{
		defs:  make(map[TeamID]TeamDefinition, len(defs)),
		order: make([]TeamID, 0, len(defs)),
	}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("team definition with empty id")
		}
		if _, ok := c.defs[d.ID]; ok {
			return nil, fmt.Errorf("duplicate team definition %q", d.ID)
		}
		c.defs[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	return c, nil
}

// MustNew is New for compiled-in tables where a failure is a programming
// error.
func MustNew(defs ...TeamDefinition) *Catalog {
	c, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the definition for a team ID, or a coded not_found error.
func (c *Catalog) Get(teamID TeamID) (TeamDefinition, error) {
	d, ok := c.defs[teamID]
	if !ok {
		return TeamDefinition{}, dErrors.Newf(dErrors.CodeNotFound, "unknown team %q", teamID)
	}
	return d, nil
}

// IsValidTeamID reports whether the catalog defines the given team.
func (c *Catalog) IsValidTeamID(teamID TeamID) bool {
	_, ok := c.defs[teamID]
	return ok
}

// ParseTeamID validates a team ID string against the catalog at a trust
// boundary.
func (c *Catalog) ParseTeamID(s string) (TeamID, error) {
	teamID := TeamID(s)
	if !c.IsValidTeamID(teamID) {
		return "", dErrors.Newf(dErrors.CodeNotFound, "unknown team %q", s)
	}
	return teamID, nil
}

// TeamIDs returns all team IDs in definition order. The returned slice is a
// copy; callers may not mutate catalog state through it.
func (c *Catalog) TeamIDs() []TeamID {
	out := make([]TeamID, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of teams in the catalog.
func (c *Catalog) Len() int { return len(c.order) }
