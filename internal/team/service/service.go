// Package service implements the team management operations: assigning staff
// to teams, changing roles, and keeping the cached effective permission set
// in sync with membership.
//
// Every mutation follows the same shape: read the profile, apply the change,
// recalculate effective permissions, persist conditionally on the version
// read, then write the audit entry. The audit write is deliberately last so
// the trail only ever describes state that was actually persisted.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"crew/internal/audit"
	"crew/internal/catalog"
	"crew/internal/permissions"
	teammetrics "crew/internal/team/metrics"
	"crew/internal/team/models"
	"crew/internal/team/store/profile"
	id "crew/pkg/domain"
	dErrors "crew/pkg/domain-errors"
	"crew/pkg/platform/sentinel"
	"crew/pkg/requestcontext"
)

// Service orchestrates team membership for staff users.
type Service struct {
	profiles profile.Store
	catalog  *catalog.Catalog
	audit    *audit.Service
	metrics  *teammetrics.Metrics
	logger   *slog.Logger

	// userLocks serializes same-user mutations within this process so two
	// admins editing one user don't burn a retry on the version check. The
	// store's optimistic check remains the cross-instance guarantee.
	mu        sync.Mutex
	userLocks map[id.UserID]*sync.Mutex
}

type serviceConfig struct {
	metrics *teammetrics.Metrics
	logger  *slog.Logger
}

// Option customizes optional service dependencies.
type Option func(*serviceConfig)

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *teammetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = l }
}

func NewService(profiles profile.Store, cat *catalog.Catalog, auditSvc *audit.Service, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		profiles:  profiles,
		catalog:   cat,
		audit:     auditSvc,
		metrics:   cfg.metrics,
		logger:    cfg.logger,
		userLocks: make(map[id.UserID]*sync.Mutex),
	}
}

// MutationResult reports the permission consequences of one membership
// change.
type MutationResult struct {
	Profile            *models.StaffProfile
	BeforePermissions  []string
	AfterPermissions   []string
	AddedPermissions   []string
	RemovedPermissions []string
}

// AssignUserToTeam adds a new team membership at the given role.
func (s *Service) AssignUserToTeam(ctx context.Context, userID id.UserID, teamID catalog.TeamID, role catalog.Role, actor id.UserID) (*MutationResult, error) {
	res, err := s.assign(ctx, userID, teamID, role, actor, audit.OperationAssign)
	if err != nil {
		return nil, err
	}
	s.incr(func(m *teammetrics.Metrics) { m.Assignments.Inc() })
	return res, nil
}

func (s *Service) assign(ctx context.Context, userID id.UserID, teamID catalog.TeamID, role catalog.Role, actor id.UserID, op audit.Operation) (*MutationResult, error) {
	if err := s.validateTeamAndRole(teamID, role); err != nil {
		return nil, err
	}
	return s.applyChange(ctx, userID, actor, op, teamID, role, func(p *models.StaffProfile) error {
		if err := p.CanJoin(teamID); err != nil {
			return dErrors.Newf(dErrors.CodeConflict, "user %s is already assigned to team %q", userID, teamID)
		}
		p.ApplyJoin(models.TeamAssignment{
			TeamID:     teamID,
			Role:       role,
			AssignedAt: requestcontext.Now(ctx),
			AssignedBy: actor,
		})
		return nil
	})
}

// RemoveUserFromTeam drops an existing membership.
func (s *Service) RemoveUserFromTeam(ctx context.Context, userID id.UserID, teamID catalog.TeamID, actor id.UserID) (*MutationResult, error) {
	if _, err := s.catalog.Get(teamID); err != nil {
		return nil, err
	}
	res, err := s.applyChange(ctx, userID, actor, audit.OperationRemove, teamID, "", func(p *models.StaffProfile) error {
		if err := p.CanLeave(teamID); err != nil {
			return dErrors.Newf(dErrors.CodeNotFound, "user %s is not assigned to team %q", userID, teamID)
		}
		p.ApplyLeave(teamID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.incr(func(m *teammetrics.Metrics) { m.Removals.Inc() })
	return res, nil
}

// UpdateUserTeamRole promotes or demotes an existing membership in place.
// The original AssignedAt/AssignedBy provenance survives: a role change is
// not a new membership.
func (s *Service) UpdateUserTeamRole(ctx context.Context, userID id.UserID, teamID catalog.TeamID, newRole catalog.Role, actor id.UserID) (*MutationResult, error) {
	if err := s.validateTeamAndRole(teamID, newRole); err != nil {
		return nil, err
	}
	res, err := s.applyChange(ctx, userID, actor, audit.OperationRoleChange, teamID, newRole, func(p *models.StaffProfile) error {
		if err := p.CanChangeRole(teamID); err != nil {
			return dErrors.Newf(dErrors.CodeNotFound, "user %s is not assigned to team %q", userID, teamID)
		}
		p.ApplyRoleChange(teamID, newRole)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.incr(func(m *teammetrics.Metrics) { m.RoleChanges.Inc() })
	return res, nil
}

// RecalculateUserPermissions re-derives the effective set from current base
// permissions and memberships without changing either. The act of
// recalculation is itself auditable, so an entry is written even when the
// delta is empty.
func (s *Service) RecalculateUserPermissions(ctx context.Context, userID id.UserID, actor id.UserID) (*MutationResult, error) {
	res, err := s.applyChange(ctx, userID, actor, audit.OperationRecalculate, "", "", func(p *models.StaffProfile) error {
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.incr(func(m *teammetrics.Metrics) { m.Recalculations.Inc() })
	return res, nil
}

// applyChange is the single mutation path: per-user serialization, read,
// change, recalculate, conditional persist, audit.
func (s *Service) applyChange(ctx context.Context, userID id.UserID, actor id.UserID, op audit.Operation, teamID catalog.TeamID, role catalog.Role, change func(*models.StaffProfile) error) (*MutationResult, error) {
	start := time.Now()
	unlock := s.lockUser(userID)
	defer unlock()

	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown user %s", userID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load staff profile")
	}

	before := append([]string(nil), p.EffectivePermissions...)

	if err := change(p); err != nil {
		return nil, err
	}

	after, err := permissions.CalculateEffective(s.catalog, p.BasePermissions, p.Teams)
	if err != nil {
		// A catalog/role mismatch here means stored state is malformed;
		// validation rejects it before any mutation path can persist it.
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "recalculate effective permissions")
	}
	p.EffectivePermissions = after

	if err := s.profiles.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			s.incr(func(m *teammetrics.Metrics) { m.ConflictRetries.Inc() })
			return nil, dErrors.Newf(dErrors.CodeConflict, "profile for user %s was modified concurrently, retry", userID)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown user %s", userID)
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist staff profile")
		}
	}

	added, removed := permissions.Diff(before, after)
	entry := audit.Entry{
		Actor:              actor,
		TargetUserID:       userID,
		Operation:          op,
		TeamID:             teamID,
		Role:               role,
		BeforePermissions:  before,
		AfterPermissions:   after,
		AddedPermissions:   added,
		RemovedPermissions: removed,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		// The profile write already landed. Surface this distinctly so
		// operators can reconcile with a recalculation, which re-emits the
		// audit entry.
		s.logger.ErrorContext(ctx, "audit write failed after profile persist",
			"target_user_id", userID,
			"operation", op,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeAuditWriteFailed, "profile persisted but audit write failed")
	}

	s.logger.InfoContext(ctx, "team membership updated",
		"target_user_id", userID,
		"operation", op,
		"team_id", teamID,
		"added", added,
		"removed", removed,
	)
	if s.metrics != nil {
		s.metrics.ObserveMutation(start)
	}

	return &MutationResult{
		Profile:            p,
		BeforePermissions:  before,
		AfterPermissions:   after,
		AddedPermissions:   added,
		RemovedPermissions: removed,
	}, nil
}

func (s *Service) validateTeamAndRole(teamID catalog.TeamID, role catalog.Role) error {
	if _, err := s.catalog.Get(teamID); err != nil {
		return err
	}
	if !catalog.IsValidRole(role) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "role must be %q or %q", catalog.RoleMember, catalog.RoleManager)
	}
	return nil
}

func (s *Service) lockUser(userID id.UserID) func() {
	s.mu.Lock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func (s *Service) incr(fn func(*teammetrics.Metrics)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}
