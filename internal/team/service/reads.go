package service

import (
	"context"
	"errors"
	"time"

	"crew/internal/catalog"
	"crew/internal/team/models"
	id "crew/pkg/domain"
	dErrors "crew/pkg/domain-errors"
	"crew/pkg/platform/sentinel"
)

// TeamMember is one row of a team's member listing.
type TeamMember struct {
	UserID     id.UserID    `json:"user_id"`
	Role       catalog.Role `json:"role"`
	AssignedAt time.Time    `json:"assigned_at"`
}

// GetUserTeamInfo returns a user's assignments and effective permissions.
func (s *Service) GetUserTeamInfo(ctx context.Context, userID id.UserID) (*models.StaffProfile, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown user %s", userID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load staff profile")
	}
	return p, nil
}

// GetTeamMembers lists every staff user assigned to a team.
func (s *Service) GetTeamMembers(ctx context.Context, teamID catalog.TeamID) ([]TeamMember, error) {
	if _, err := s.catalog.Get(teamID); err != nil {
		return nil, err
	}
	staff, err := s.listStaff(ctx)
	if err != nil {
		return nil, err
	}
	members := make([]TeamMember, 0)
	for _, p := range staff {
		if a, ok := p.AssignmentFor(teamID); ok {
			members = append(members, TeamMember{
				UserID:     p.UserID,
				Role:       a.Role,
				AssignedAt: a.AssignedAt,
			})
		}
	}
	return members, nil
}

// GetTeamMemberCount returns how many staff users hold an assignment for the
// team.
func (s *Service) GetTeamMemberCount(ctx context.Context, teamID catalog.TeamID) (int, error) {
	members, err := s.GetTeamMembers(ctx, teamID)
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

// IsUserInTeam reports membership at either role.
func (s *Service) IsUserInTeam(ctx context.Context, userID id.UserID, teamID catalog.TeamID) (bool, error) {
	if _, err := s.catalog.Get(teamID); err != nil {
		return false, err
	}
	p, err := s.GetUserTeamInfo(ctx, userID)
	if err != nil {
		return false, err
	}
	return p.IsInTeam(teamID), nil
}

// GetUnassignedStaffUsers returns staff users with no team assignments.
func (s *Service) GetUnassignedStaffUsers(ctx context.Context) ([]id.UserID, error) {
	staff, err := s.listStaff(ctx)
	if err != nil {
		return nil, err
	}
	unassigned := make([]id.UserID, 0)
	for _, p := range staff {
		if len(p.Teams) == 0 {
			unassigned = append(unassigned, p.UserID)
		}
	}
	return unassigned, nil
}

// TeamStat is one team's member count in the stats listing.
type TeamStat struct {
	TeamID      catalog.TeamID `json:"team_id"`
	Name        string         `json:"name"`
	MemberCount int            `json:"member_count"`
}

// TeamStats returns per-team member counts in catalog order.
func (s *Service) TeamStats(ctx context.Context) ([]TeamStat, error) {
	staff, err := s.listStaff(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[catalog.TeamID]int, s.catalog.Len())
	for _, p := range staff {
		for _, a := range p.Teams {
			counts[a.TeamID]++
		}
	}
	stats := make([]TeamStat, 0, s.catalog.Len())
	for _, teamID := range s.catalog.TeamIDs() {
		def, err := s.catalog.Get(teamID)
		if err != nil {
			return nil, err
		}
		stats = append(stats, TeamStat{
			TeamID:      teamID,
			Name:        def.Name,
			MemberCount: counts[teamID],
		})
	}
	return stats, nil
}

func (s *Service) listStaff(ctx context.Context) ([]*models.StaffProfile, error) {
	staff, err := s.profiles.ListStaff(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list staff profiles")
	}
	return staff, nil
}
