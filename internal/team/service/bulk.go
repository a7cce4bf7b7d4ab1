package service

import (
	"context"

	"crew/internal/audit"
	"crew/internal/catalog"
	teammetrics "crew/internal/team/metrics"
	id "crew/pkg/domain"
)

// BulkItemResult is the outcome for one user in a bulk assignment. Exactly
// one of Err or the permission fields is meaningful.
type BulkItemResult struct {
	UserID           id.UserID
	Err              error
	AddedPermissions []string
	EffectiveCount   int
}

// BulkResult aggregates per-user outcomes of a bulk assignment.
type BulkResult struct {
	Results   []BulkItemResult
	Succeeded int
	Failed    int
}

// BulkAssignUsersToTeam assigns each user independently. A failure for one
// user (already assigned, unknown user) never aborts the remaining entries;
// callers inspect the per-user results to distinguish full, partial, and
// total failure. Team and role are validated once up front since an invalid
// target would fail every entry identically.
func (s *Service) BulkAssignUsersToTeam(ctx context.Context, userIDs []id.UserID, teamID catalog.TeamID, role catalog.Role, actor id.UserID) (*BulkResult, error) {
	if err := s.validateTeamAndRole(teamID, role); err != nil {
		return nil, err
	}

	out := &BulkResult{Results: make([]BulkItemResult, 0, len(userIDs))}
	for _, userID := range userIDs {
		res, err := s.assign(ctx, userID, teamID, role, actor, audit.OperationBulkAssign)
		if err != nil {
			out.Results = append(out.Results, BulkItemResult{UserID: userID, Err: err})
			out.Failed++
			continue
		}
		out.Results = append(out.Results, BulkItemResult{
			UserID:           userID,
			AddedPermissions: res.AddedPermissions,
			EffectiveCount:   len(res.AfterPermissions),
		})
		out.Succeeded++
		s.incr(func(m *teammetrics.Metrics) { m.Assignments.Inc() })
	}
	return out, nil
}
