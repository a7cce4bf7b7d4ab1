package service

import (
	"context"
	"errors"

	"crew/internal/team/models"
	id "crew/pkg/domain"
	dErrors "crew/pkg/domain-errors"
	"crew/pkg/platform/sentinel"
	"crew/pkg/requestcontext"
)

// EnsureStaffProfile creates the permission profile written when a user
// becomes staff: empty team list, optional base permission grants.
// Idempotent: an existing profile is returned unchanged, base permissions
// are not merged.
func (s *Service) EnsureStaffProfile(ctx context.Context, userID id.UserID, basePermissions []string) (*models.StaffProfile, error) {
	existing, err := s.profiles.FindByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load staff profile")
	}

	p := models.NewStaffProfile(userID, basePermissions, requestcontext.Now(ctx))
	if err := s.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			// Lost a creation race; the winner's profile is authoritative.
			return s.GetUserTeamInfo(ctx, userID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create staff profile")
	}

	s.logger.InfoContext(ctx, "staff profile created",
		"user_id", userID,
		"base_permissions", len(basePermissions),
	)
	return p, nil
}
