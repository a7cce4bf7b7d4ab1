package profile

import (
	"context"
	"sort"
	"sync"

	"crew/internal/team/models"
	id "crew/pkg/domain"
	"crew/pkg/platform/sentinel"
	"crew/pkg/requestcontext"
)

// InMemory is the reference Store implementation. It backs unit tests and
// local development; the version check mirrors the Postgres conditional
// update exactly.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*models.StaffProfile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[id.UserID]*models.StaffProfile)}
}

func (s *InMemory) Create(_ context.Context, p *models.StaffProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.profiles[p.UserID] = p.Clone()
	return nil
}

func (s *InMemory) FindByUserID(_ context.Context, userID id.UserID) (*models.StaffProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) Update(ctx context.Context, p *models.StaffProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.profiles[p.UserID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != p.Version {
		return sentinel.ErrConflict
	}
	p.Version++
	p.UpdatedAt = requestcontext.Now(ctx)
	s.profiles[p.UserID] = p.Clone()
	return nil
}

func (s *InMemory) ListStaff(_ context.Context) ([]*models.StaffProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.StaffProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	// Stable order keeps batch passes and tests deterministic.
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out, nil
}
