package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crew/internal/catalog"
	"crew/internal/team/models"
	id "crew/pkg/domain"
	"crew/pkg/platform/sentinel"
)

type ProfileStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestProfileStoreSuite(t *testing.T) {
	suite.Run(t, new(ProfileStoreSuite))
}

func (s *ProfileStoreSuite) newProfile() *models.StaffProfile {
	return models.NewStaffProfile(id.NewUserID(), []string{"view_ops_dashboard"}, time.Now())
}

func (s *ProfileStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds by user ID", func() {
		p := s.newProfile()
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.FindByUserID(s.ctx, p.UserID)
		s.Require().NoError(err)
		s.Equal(p.UserID, found.UserID)
		s.Equal(p.BasePermissions, found.BasePermissions)
	})

	s.Run("returns ErrNotFound for unknown user", func() {
		_, err := s.store.FindByUserID(s.ctx, id.NewUserID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate creation", func() {
		p := s.newProfile()
		s.Require().NoError(s.store.Create(s.ctx, p))
		s.Require().ErrorIs(s.store.Create(s.ctx, p), sentinel.ErrAlreadyExists)
	})
}

func (s *ProfileStoreSuite) TestOptimisticConcurrency() {
	s.Run("update succeeds with current version and bumps it", func() {
		p := s.newProfile()
		s.Require().NoError(s.store.Create(s.ctx, p))

		p.EffectivePermissions = []string{"view_leads"}
		s.Require().NoError(s.store.Update(s.ctx, p))
		s.Equal(int64(2), p.Version)

		found, err := s.store.FindByUserID(s.ctx, p.UserID)
		s.Require().NoError(err)
		s.Equal(int64(2), found.Version)
		s.Equal([]string{"view_leads"}, found.EffectivePermissions)
	})

	s.Run("stale version is a conflict", func() {
		p := s.newProfile()
		s.Require().NoError(s.store.Create(s.ctx, p))

		first := p.Clone()
		second := p.Clone()

		first.Teams = append(first.Teams, models.TeamAssignment{TeamID: catalog.TeamSales, Role: catalog.RoleMember})
		s.Require().NoError(s.store.Update(s.ctx, first))

		second.Teams = append(second.Teams, models.TeamAssignment{TeamID: catalog.TeamMarketing, Role: catalog.RoleMember})
		s.Require().ErrorIs(s.store.Update(s.ctx, second), sentinel.ErrConflict)

		// The first write survived untouched.
		found, err := s.store.FindByUserID(s.ctx, p.UserID)
		s.Require().NoError(err)
		s.Require().Len(found.Teams, 1)
		s.Equal(catalog.TeamSales, found.Teams[0].TeamID)
	})

	s.Run("update of missing profile is ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Update(s.ctx, s.newProfile()), sentinel.ErrNotFound)
	})
}

func (s *ProfileStoreSuite) TestStoredStateIsIsolated() {
	p := s.newProfile()
	s.Require().NoError(s.store.Create(s.ctx, p))

	// Mutating the caller's copy after Create must not affect stored state.
	p.BasePermissions[0] = "tampered"

	found, err := s.store.FindByUserID(s.ctx, p.UserID)
	s.Require().NoError(err)
	s.Equal([]string{"view_ops_dashboard"}, found.BasePermissions)

	// Nor may mutating a returned copy.
	found.BasePermissions[0] = "tampered"
	again, err := s.store.FindByUserID(s.ctx, p.UserID)
	s.Require().NoError(err)
	s.Equal([]string{"view_ops_dashboard"}, again.BasePermissions)
}

func (s *ProfileStoreSuite) TestListStaff() {
	s.Run("empty store lists nothing", func() {
		all, err := s.store.ListStaff(s.ctx)
		s.Require().NoError(err)
		s.Empty(all)
	})

	s.Run("lists every profile in stable order", func() {
		for range 3 {
			s.Require().NoError(s.store.Create(s.ctx, s.newProfile()))
		}
		all, err := s.store.ListStaff(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(all, 3)
		s.True(all[0].UserID.String() < all[1].UserID.String())
		s.True(all[1].UserID.String() < all[2].UserID.String())
	})
}
