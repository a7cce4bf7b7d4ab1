// Package authz answers "may this staff user do X" from the effective
// permission set and team memberships stored on the profile. Decisions are
// first-class values so callers can log and count denials; the HTTP
// middleware in this package turns a deny into a 403 without leaking any
// other user's data.
package authz

import (
	"context"
	"fmt"

	"crew/internal/catalog"
	"crew/internal/permissions"
	"crew/internal/team/models"
	id "crew/pkg/domain"
)

// Deny reasons, used as the metrics label and in the 403 body.
const (
	ReasonUnknownUser       = "unknown_user"
	ReasonNotTeamMember     = "not_team_member"
	ReasonNotTeamManager    = "not_team_manager"
	ReasonMissingPermission = "missing_permission"
)

// Decision is the outcome of one authorization check. A denied decision
// carries a machine-readable reason and, for permission checks, the set
// that was required.
type Decision struct {
	Allowed  bool
	Reason   string
	Required []string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string, required ...string) Decision {
	return Decision{Reason: reason, Required: required}
}

// Explain renders the decision for logs and error bodies.
func (d Decision) Explain() string {
	if d.Allowed {
		return "allowed"
	}
	if len(d.Required) > 0 {
		return fmt.Sprintf("%s: requires %v", d.Reason, d.Required)
	}
	return d.Reason
}

// ProfileSource loads the staff profile authorization decisions are made
// against. The team service satisfies it.
type ProfileSource interface {
	GetUserTeamInfo(ctx context.Context, userID id.UserID) (*models.StaffProfile, error)
}

// TeamMember checks membership in a team at any role.
func TeamMember(p *models.StaffProfile, teamID catalog.TeamID) Decision {
	if p == nil {
		return deny(ReasonUnknownUser)
	}
	if !p.IsInTeam(teamID) {
		return deny(ReasonNotTeamMember)
	}
	return allow()
}

// TeamManager checks membership in a team at the manager role. A plain
// member of the team is denied with a distinct reason from a non-member.
func TeamManager(p *models.StaffProfile, teamID catalog.TeamID) Decision {
	if p == nil {
		return deny(ReasonUnknownUser)
	}
	if !p.IsInTeam(teamID) {
		return deny(ReasonNotTeamMember)
	}
	if !p.IsTeamManager(teamID) {
		return deny(ReasonNotTeamManager)
	}
	return allow()
}

// AnyPermission checks that at least one of the named permissions is in the
// user's effective set.
func AnyPermission(p *models.StaffProfile, perms ...string) Decision {
	if p == nil {
		return deny(ReasonUnknownUser)
	}
	if !permissions.HasAnyPermission(p, perms...) {
		return deny(ReasonMissingPermission, perms...)
	}
	return allow()
}

// AllPermissions checks that every named permission is in the user's
// effective set.
func AllPermissions(p *models.StaffProfile, perms ...string) Decision {
	if p == nil {
		return deny(ReasonUnknownUser)
	}
	if !permissions.HasAllPermissions(p, perms...) {
		return deny(ReasonMissingPermission, perms...)
	}
	return allow()
}
