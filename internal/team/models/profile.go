// Package models holds the staff permission aggregate: the per-user profile
// combining base permissions with team assignments.
package models

import (
	"time"

	"crew/internal/catalog"
	id "crew/pkg/domain"
	dErrors "crew/pkg/domain-errors"
	platformstrings "crew/pkg/platform/strings"
)

// TeamAssignment is one user's membership in one team at one role.
//
// Invariant: a profile holds at most one assignment per team. AssignedAt and
// AssignedBy record provenance and survive role changes (a promotion is not
// a new membership).
type TeamAssignment struct {
	TeamID     catalog.TeamID `json:"team_id"`
	Role       catalog.Role   `json:"role"`
	AssignedAt time.Time      `json:"assigned_at"`
	AssignedBy id.UserID      `json:"assigned_by"`
}

// StaffProfile is the aggregate root for a staff user's permissions.
//
// Invariants:
//   - At most one TeamAssignment per team ID
//   - EffectivePermissions is always basePermissions ∪ team-derived sets; it
//     is a cache recomputed by the management service inside the same write
//     as any change to BasePermissions or Teams, never patched incrementally
//   - Version increments on every persisted write; stores reject a write
//     whose Version does not match the stored one (optimistic concurrency)
type StaffProfile struct {
	UserID               id.UserID        `json:"user_id"`
	BasePermissions      []string         `json:"base_permissions"`
	Teams                []TeamAssignment `json:"teams"`
	EffectivePermissions []string         `json:"effective_permissions"`
	Version              int64            `json:"version"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// NewStaffProfile creates the profile written when a user becomes staff.
// Team list starts empty; base permissions are optional direct grants,
// normalized here so a fresh profile never carries duplicates or whitespace
// that a later recalculation would strip.
func NewStaffProfile(userID id.UserID, basePermissions []string, now time.Time) *StaffProfile {
	base := platformstrings.DedupeAndTrim(basePermissions)
	return &StaffProfile{
		UserID:               userID,
		BasePermissions:      base,
		Teams:                nil,
		EffectivePermissions: append([]string(nil), base...),
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// AssignmentFor returns the assignment for a team, if any.
func (p *StaffProfile) AssignmentFor(teamID catalog.TeamID) (TeamAssignment, bool) {
	for _, a := range p.Teams {
		if a.TeamID == teamID {
			return a, true
		}
	}
	return TeamAssignment{}, false
}

// IsInTeam reports membership at either role.
func (p *StaffProfile) IsInTeam(teamID catalog.TeamID) bool {
	_, ok := p.AssignmentFor(teamID)
	return ok
}

// IsTeamManager reports membership at the manager role.
func (p *StaffProfile) IsTeamManager(teamID catalog.TeamID) bool {
	a, ok := p.AssignmentFor(teamID)
	return ok && a.Role == catalog.RoleManager
}

// CanJoin checks the single-membership invariant before an assignment.
func (p *StaffProfile) CanJoin(teamID catalog.TeamID) error {
	if p.IsInTeam(teamID) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "already assigned to team %q", teamID)
	}
	return nil
}

// ApplyJoin appends a new assignment. Call CanJoin first.
func (p *StaffProfile) ApplyJoin(a TeamAssignment) {
	p.Teams = append(p.Teams, a)
}

// CanLeave checks that the membership to remove exists.
func (p *StaffProfile) CanLeave(teamID catalog.TeamID) error {
	if !p.IsInTeam(teamID) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "not assigned to team %q", teamID)
	}
	return nil
}

// ApplyLeave removes the assignment for a team. Call CanLeave first.
func (p *StaffProfile) ApplyLeave(teamID catalog.TeamID) {
	kept := p.Teams[:0]
	for _, a := range p.Teams {
		if a.TeamID != teamID {
			kept = append(kept, a)
		}
	}
	p.Teams = kept
}

// CanChangeRole checks that the membership to modify exists.
func (p *StaffProfile) CanChangeRole(teamID catalog.TeamID) error {
	if !p.IsInTeam(teamID) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "not assigned to team %q", teamID)
	}
	return nil
}

// ApplyRoleChange swaps the role in place, preserving the original
// AssignedAt/AssignedBy provenance. Call CanChangeRole first.
func (p *StaffProfile) ApplyRoleChange(teamID catalog.TeamID, role catalog.Role) {
	for i := range p.Teams {
		if p.Teams[i].TeamID == teamID {
			p.Teams[i].Role = role
			return
		}
	}
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate stored state outside a conditional write.
func (p *StaffProfile) Clone() *StaffProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.BasePermissions = append([]string(nil), p.BasePermissions...)
	cp.Teams = append([]TeamAssignment(nil), p.Teams...)
	cp.EffectivePermissions = append([]string(nil), p.EffectivePermissions...)
	return &cp
}
