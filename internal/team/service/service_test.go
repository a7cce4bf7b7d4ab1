package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crew/internal/audit"
	auditmemory "crew/internal/audit/store/memory"
	"crew/internal/catalog"
	"crew/internal/team/store/profile"
	id "crew/pkg/domain"
	dErrors "crew/pkg/domain-errors"
	"crew/pkg/requestcontext"
)

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, audit.Entry) error {
	return errors.New("audit sink unavailable")
}
func (failingAuditStore) ListByTarget(context.Context, id.UserID) ([]audit.Entry, error) {
	return nil, nil
}
func (failingAuditStore) ListRange(context.Context, time.Time, time.Time) ([]audit.Entry, error) {
	return nil, nil
}
func (failingAuditStore) ListRecent(context.Context, int) ([]audit.Entry, error) {
	return nil, nil
}

type ServiceSuite struct {
	suite.Suite
	profiles *profile.InMemory
	audits   *auditmemory.InMemoryStore
	svc      *Service
	ctx      context.Context
	actor    id.UserID
	now      time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.profiles = profile.NewInMemory()
	s.audits = auditmemory.NewInMemoryStore()
	s.svc = NewService(s.profiles, catalog.Default(), audit.NewService(s.audits, nil))
	s.actor = id.NewUserID()
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) seedUser(basePermissions ...string) id.UserID {
	userID := id.NewUserID()
	_, err := s.svc.EnsureStaffProfile(s.ctx, userID, basePermissions)
	s.Require().NoError(err)
	return userID
}

func (s *ServiceSuite) TestAssignUserToTeam() {
	s.Run("grants the role's permission set", func() {
		userID := s.seedUser("view_ops_dashboard")

		res, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamSales, catalog.RoleMember, s.actor)
		s.Require().NoError(err)
		s.ElementsMatch([]string{"respond_to_leads", "view_leads"}, res.AddedPermissions)
		s.Empty(res.RemovedPermissions)
		s.Equal([]string{"respond_to_leads", "view_leads", "view_ops_dashboard"}, res.AfterPermissions)

		p, err := s.svc.GetUserTeamInfo(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().Len(p.Teams, 1)
		s.Equal(catalog.TeamSales, p.Teams[0].TeamID)
		s.Equal(catalog.RoleMember, p.Teams[0].Role)
		s.Equal(s.actor, p.Teams[0].AssignedBy)
		s.Equal(s.now, p.Teams[0].AssignedAt)
	})

	s.Run("writes an audit entry with the delta", func() {
		userID := s.seedUser()
		_, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamMarketing, catalog.RoleMember, s.actor)
		s.Require().NoError(err)

		entries, err := s.audits.ListByTarget(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.OperationAssign, entries[0].Operation)
		s.Equal(s.actor, entries[0].Actor)
		s.Equal(catalog.TeamMarketing, entries[0].TeamID)
		s.Equal([]string{"view_campaigns"}, entries[0].AddedPermissions)
		s.Empty(entries[0].RemovedPermissions)
	})

	s.Run("rejects duplicate assignment without mutating state", func() {
		userID := s.seedUser()
		_, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamSales, catalog.RoleMember, s.actor)
		s.Require().NoError(err)
		before, err := s.svc.GetUserTeamInfo(s.ctx, userID)
		s.Require().NoError(err)

		_, err = s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamSales, catalog.RoleManager, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		after, err := s.svc.GetUserTeamInfo(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(before.Version, after.Version)
		s.Equal(before.EffectivePermissions, after.EffectivePermissions)
		s.Equal(catalog.RoleMember, after.Teams[0].Role)

		entries, err := s.audits.ListByTarget(s.ctx, userID)
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("rejects unknown team", func() {
		userID := s.seedUser()
		_, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamID("golf"), catalog.RoleMember, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects unknown role", func() {
		userID := s.seedUser()
		_, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamSales, catalog.Role("owner"), s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects unknown user", func() {
		_, err := s.svc.AssignUserToTeam(s.ctx, id.NewUserID(), catalog.TeamSales, catalog.RoleMember, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("concurrent assignments to different teams both land", func() {
		userID := s.seedUser()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		targets := []catalog.TeamID{catalog.TeamSales, catalog.TeamMarketing}
		for i, teamID := range targets {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = s.svc.AssignUserToTeam(s.ctx, userID, teamID, catalog.RoleMember, s.actor)
			}()
		}
		wg.Wait()

		s.Require().NoError(errs[0])
		s.Require().NoError(errs[1])
		p, err := s.svc.GetUserTeamInfo(s.ctx, userID)
		s.Require().NoError(err)
		s.Len(p.Teams, 2)
		s.ElementsMatch([]string{"respond_to_leads", "view_campaigns", "view_leads"}, p.EffectivePermissions)
	})
}

func (s *ServiceSuite) TestRemoveUserFromTeam() {
	s.Run("revokes the team's contribution only", func() {
		userID := s.seedUser("view_ops_dashboard")
		_, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamSales, catalog.RoleMember, s.actor)
		s.Require().NoError(err)
		_, err = s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamMarketing, catalog.RoleMember, s.actor)
		s.Require().NoError(err)

		res, err := s.svc.RemoveUserFromTeam(s.ctx, userID, catalog.TeamSales, s.actor)
		s.Require().NoError(err)
		s.ElementsMatch([]string{"respond_to_leads", "view_leads"}, res.RemovedPermissions)
		s.Empty(res.AddedPermissions)
		s.Equal([]string{"view_campaigns", "view_ops_dashboard"}, res.AfterPermissions)
	})

	s.Run("keeps permissions still granted elsewhere or by base", func() {
		userID := s.seedUser("view_leads")
		_, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamSales, catalog.RoleMember, s.actor)
		s.Require().NoError(err)

		res, err := s.svc.RemoveUserFromTeam(s.ctx, userID, catalog.TeamSales, s.actor)
		s.Require().NoError(err)
		s.Equal([]string{"respond_to_leads"}, res.RemovedPermissions)
		s.Equal([]string{"view_leads"}, res.AfterPermissions)
	})

	s.Run("not a member is not found", func() {
		userID := s.seedUser()
		_, err := s.svc.RemoveUserFromTeam(s.ctx, userID, catalog.TeamSales, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestUpdateUserTeamRole() {
	s.Run("promotion adds manager-only permissions and keeps provenance", func() {
		originalActor := id.NewUserID()
		assignedAt := s.now.Add(-48 * time.Hour)
		userID := s.seedUser()
		_, err := s.svc.AssignUserToTeam(requestcontext.WithTime(s.ctx, assignedAt), userID, catalog.TeamSales, catalog.RoleMember, originalActor)
		s.Require().NoError(err)

		res, err := s.svc.UpdateUserTeamRole(s.ctx, userID, catalog.TeamSales, catalog.RoleManager, s.actor)
		s.Require().NoError(err)
		s.Equal([]string{"assign_leads"}, res.AddedPermissions)
		s.Empty(res.RemovedPermissions)

		s.Require().Len(res.Profile.Teams, 1)
		s.Equal(catalog.RoleManager, res.Profile.Teams[0].Role)
		s.Equal(originalActor, res.Profile.Teams[0].AssignedBy)
		s.Equal(assignedAt, res.Profile.Teams[0].AssignedAt)

		entries, err := s.audits.ListByTarget(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal(audit.OperationRoleChange, entries[0].Operation)
	})

	s.Run("demotion removes manager-only permissions", func() {
		userID := s.seedUser()
		_, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamSales, catalog.RoleManager, s.actor)
		s.Require().NoError(err)

		res, err := s.svc.UpdateUserTeamRole(s.ctx, userID, catalog.TeamSales, catalog.RoleMember, s.actor)
		s.Require().NoError(err)
		s.Equal([]string{"assign_leads"}, res.RemovedPermissions)
		s.Empty(res.AddedPermissions)
	})

	s.Run("not a member is not found", func() {
		userID := s.seedUser()
		_, err := s.svc.UpdateUserTeamRole(s.ctx, userID, catalog.TeamSales, catalog.RoleManager, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestRecalculateUserPermissions() {
	s.Run("is idempotent and still audited", func() {
		userID := s.seedUser("view_ops_dashboard")
		_, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamSales, catalog.RoleMember, s.actor)
		s.Require().NoError(err)

		later := requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
		first, err := s.svc.RecalculateUserPermissions(later, userID, s.actor)
		s.Require().NoError(err)
		s.Empty(first.AddedPermissions)
		s.Empty(first.RemovedPermissions)

		second, err := s.svc.RecalculateUserPermissions(later, userID, s.actor)
		s.Require().NoError(err)
		s.Equal(first.AfterPermissions, second.AfterPermissions)
		s.Empty(second.AddedPermissions)
		s.Empty(second.RemovedPermissions)

		entries, err := s.audits.ListByTarget(s.ctx, userID)
		s.Require().NoError(err)
		s.Len(entries, 3)
		s.Equal(audit.OperationRecalculate, entries[0].Operation)
	})
}

func (s *ServiceSuite) TestAuditWriteFailure() {
	s.Run("profile persists but the call reports audit failure", func() {
		svc := NewService(s.profiles, catalog.Default(), audit.NewService(failingAuditStore{}, nil))
		userID := s.seedUser()

		_, err := svc.AssignUserToTeam(s.ctx, userID, catalog.TeamSales, catalog.RoleMember, s.actor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAuditWriteFailed))

		p, err := svc.GetUserTeamInfo(s.ctx, userID)
		s.Require().NoError(err)
		s.True(p.IsInTeam(catalog.TeamSales))
	})
}

func (s *ServiceSuite) TestBulkAssignUsersToTeam() {
	s.Run("per-user failures never abort the batch", func() {
		alreadyAssigned := s.seedUser()
		_, err := s.svc.AssignUserToTeam(s.ctx, alreadyAssigned, catalog.TeamSupport, catalog.RoleMember, s.actor)
		s.Require().NoError(err)

		fresh1 := s.seedUser()
		fresh2 := s.seedUser()
		userIDs := []id.UserID{fresh1, alreadyAssigned, fresh2}

		res, err := s.svc.BulkAssignUsersToTeam(s.ctx, userIDs, catalog.TeamSupport, catalog.RoleMember, s.actor)
		s.Require().NoError(err)
		s.Equal(2, res.Succeeded)
		s.Equal(1, res.Failed)
		s.Require().Len(res.Results, 3)

		s.Equal(fresh1, res.Results[0].UserID)
		s.NoError(res.Results[0].Err)
		s.True(dErrors.HasCode(res.Results[1].Err, dErrors.CodeConflict))
		s.NoError(res.Results[2].Err)

		entries, err := s.audits.ListByTarget(s.ctx, fresh1)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.OperationBulkAssign, entries[0].Operation)
	})

	s.Run("invalid target fails the whole batch up front", func() {
		userID := s.seedUser()
		_, err := s.svc.BulkAssignUsersToTeam(s.ctx, []id.UserID{userID}, catalog.TeamID("golf"), catalog.RoleMember, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		p, err := s.svc.GetUserTeamInfo(s.ctx, userID)
		s.Require().NoError(err)
		s.Empty(p.Teams)
	})
}

func (s *ServiceSuite) TestRecalculateAllStaffPermissions() {
	s.Run("covers every staff user and reports drift", func() {
		for range 3 {
			userID := s.seedUser()
			_, err := s.svc.AssignUserToTeam(s.ctx, userID, catalog.TeamContent, catalog.RoleMember, s.actor)
			s.Require().NoError(err)
		}
		unassigned := s.seedUser()

		summary, err := s.svc.RecalculateAllStaffPermissions(s.ctx, s.actor)
		s.Require().NoError(err)
		s.Equal(4, summary.Total)
		s.Equal(4, summary.Succeeded)
		s.Zero(summary.Failed)
		s.Zero(summary.Changed)
		s.Empty(summary.Errors)

		entries, err := s.audits.ListByTarget(s.ctx, unassigned)
		s.Require().NoError(err)
		s.Len(entries, 1)
	})
}

func (s *ServiceSuite) TestEnsureStaffProfile() {
	s.Run("returns the existing profile unchanged", func() {
		userID := s.seedUser("view_ops_dashboard")
		p, err := s.svc.EnsureStaffProfile(s.ctx, userID, []string{"something_else"})
		s.Require().NoError(err)
		s.Equal([]string{"view_ops_dashboard"}, p.BasePermissions)
	})
}
